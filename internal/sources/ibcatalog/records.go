package ibcatalog

// Record is the subset of an Institutional Books 1.0 row the catalog source reads.
// Dataset: https://huggingface.co/datasets/instdin/institutional-books-1.0
type Record struct {
	BarcodeSource string `json:"barcode_src" parquet:"barcode_src"` // Primary key

	TitleSource          string `json:"title_src" parquet:"title_src"`
	AuthorSource         string `json:"author_src" parquet:"author_src"`
	Date1Source          string `json:"date1_src" parquet:"date1_src"`
	Date2Source          string `json:"date2_src" parquet:"date2_src"`
	LanguageSource       string `json:"language_src" parquet:"language_src"` // ISO 639-3 code
	TopicOrSubjectSource string `json:"topic_or_subject_src" parquet:"topic_or_subject_src"`
	GenreOrFormSource    string `json:"genre_or_form_src" parquet:"genre_or_form_src"`
	GeneralNoteSource    string `json:"general_note_src" parquet:"general_note_src"`

	IdentifiersSource Identifiers    `json:"identifiers_src" parquet:"identifiers_src"`
	HathitrustDataExt HathitrustData `json:"hathitrust_data_ext" parquet:"hathitrust_data_ext"`
}

// Identifiers contains bibliographic identifiers
type Identifiers struct {
	LCCN []string `json:"lccn" parquet:"lccn,list"`
	ISBN []string `json:"isbn" parquet:"isbn,list"`
	OCLC []string `json:"ocolc" parquet:"ocolc,list"`
}

// HathitrustData contains the HathiTrust permalink and rights information
type HathitrustData struct {
	URL        string `json:"url" parquet:"url"`
	RightsCode string `json:"rights_code" parquet:"rights_code"`
}

// PrimaryDate returns date1, falling back to date2
func (r *Record) PrimaryDate() string {
	if r.Date1Source != "" {
		return r.Date1Source
	}
	return r.Date2Source
}
