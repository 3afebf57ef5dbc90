package reqstream

import (
	"errors"
)

// FieldValue is one decoded value of a non-file field.
type FieldValue struct {
	value  string
	header Header
}

// Unwrap returns the decoded value and the header of the part it came from.
func (v FieldValue) Unwrap() (string, Header) {
	return v.value, v.header
}

// ParseResult holds the outcome of one successful parse: field values and
// uploaded files, keyed by field name with arrival order preserved per name.
type ParseResult struct {
	fieldMap map[string][]FieldValue
	fileMap  map[string][]*UploadedFile
}

func newParseResult() *ParseResult {
	return &ParseResult{
		fieldMap: make(map[string][]FieldValue),
		fileMap:  make(map[string][]*UploadedFile),
	}
}

func (r *ParseResult) addField(key string, value FieldValue) {
	r.fieldMap[key] = append(r.fieldMap[key], value)
}

func (r *ParseResult) addFile(key string, file *UploadedFile) {
	r.fileMap[key] = append(r.fileMap[key], file)
}

// Value returns the first value of the key.
func (r *ParseResult) Value(key string) (string, Header, bool) {
	values := r.fieldMap[key]
	if len(values) == 0 {
		return "", Header{}, false
	}

	value, header := values[0].Unwrap()

	return value, header, true
}

// Values returns all values of the key.
func (r *ParseResult) Values(key string) ([]FieldValue, bool) {
	values, ok := r.fieldMap[key]
	if !ok {
		return nil, false
	}

	return values, true
}

// FieldMap returns all field values.
func (r *ParseResult) FieldMap() map[string][]FieldValue {
	return r.fieldMap
}

// File returns the first uploaded file of the key.
func (r *ParseResult) File(key string) (*UploadedFile, bool) {
	files := r.fileMap[key]
	if len(files) == 0 {
		return nil, false
	}

	return files[0], true
}

// Files returns all uploaded files of the key.
func (r *ParseResult) Files(key string) ([]*UploadedFile, bool) {
	files, ok := r.fileMap[key]
	if !ok {
		return nil, false
	}

	return files, true
}

// FileMap returns all uploaded files.
func (r *ParseResult) FileMap() map[string][]*UploadedFile {
	return r.fileMap
}

// RemoveAll releases the temporary storage behind every uploaded file.
// Call it once the files are no longer needed.
func (r *ParseResult) RemoveAll() error {
	var errs []error
	for _, files := range r.fileMap {
		for _, file := range files {
			if err := file.Remove(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) != 0 {
		return errors.Join(errs...)
	}

	return nil
}
