package services

import (
	"os"
	"path/filepath"
)

// NewLocalDocumentStore returns a StoreDocument func writing PDFs under
// dir and mapping them to URLs under urlPrefix.
func NewLocalDocumentStore(dir, urlPrefix string) func(agreementID string, pdf []byte) (string, error) {
	return func(agreementID string, pdf []byte) (string, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		name := "agreement-" + agreementID + ".pdf"
		if err := os.WriteFile(filepath.Join(dir, name), pdf, 0o644); err != nil {
			return "", err
		}
		return urlPrefix + "/" + name, nil
	}
}
