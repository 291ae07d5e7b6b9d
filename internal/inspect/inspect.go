// Package inspect reads structural facts from downloaded documents.
package inspect

import (
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Inspector counts pages of PDF files with relaxed validation.
type Inspector struct {
	conf *model.Configuration
}

// New creates an Inspector. pdfcpu's on-disk configuration directory is not used.
func New() *Inspector {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Inspector{conf: conf}
}

// PageCount returns the number of pages of the PDF at path.
func (i *Inspector) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, i.conf)
	if err != nil {
		return 0, fmt.Errorf("reading page count of %s: %w", path, err)
	}
	return n, nil
}
