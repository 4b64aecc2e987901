// Package domain contains the core entities of the genomic data-release
// pipeline: the validated data-access application, the disclosure
// categories a request can be entitled to, and the error taxonomy that
// maps failure categories to process exit statuses.
package domain

// DisclosureCategory is a policy-level permission label granted to a
// data-access request. The set is closed; values outside it have no
// policy interpretation.
type DisclosureCategory string

const (
	ReIdentifiable DisclosureCategory = "Re-identifiable"
	Anonymised     DisclosureCategory = "Anonymised"
	Future         DisclosureCategory = "Future"
	Return         DisclosureCategory = "Return"
)

// IsValid reports whether the category is a member of the closed set.
func (c DisclosureCategory) IsValid() bool {
	switch c {
	case ReIdentifiable, Anonymised, Future, Return:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c DisclosureCategory) String() string {
	return string(c)
}

// FileType identifies a family of genomic data files a request can ask for.
type FileType string

const (
	FileTypeFastq FileType = "fastq"
	FileTypeBAM   FileType = "bam"
	FileTypeVCF   FileType = "vcf"
)

// FileTypes is the fixed universe of requestable file types, in the order
// they appear in the application document.
var FileTypes = []FileType{FileTypeFastq, FileTypeBAM, FileTypeVCF}

// Cohorts is the fixed universe of clinical cohorts a request can name.
var Cohorts = []string{"AML", "EPIL", "CS", "CRC", "CMT"}
