package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions outside the
// accepted set (.pdf, .docx, .txt).
var ErrUnsupportedFormat = errors.New("unsupported document format")

// SourceFormat enumerates the accepted document encodings. Each format
// carries its own decode function; adding a format means adding a variant
// and its decoder, callers stay untouched.
type SourceFormat int

const (
	FormatUnknown SourceFormat = iota
	FormatTXT
	FormatDOCX
	FormatPDF
)

func (f SourceFormat) String() string {
	switch f {
	case FormatTXT:
		return "txt"
	case FormatDOCX:
		return "docx"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// DetectFormat maps a file name to its source format by extension.
func DetectFormat(filename string) (SourceFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return FormatTXT, nil
	case ".docx":
		return FormatDOCX, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// CommandRunner executes an external command with the given stdin and
// returns its stdout. PDF decoding shells out to a pdftotext-style binary
// through this seam so tests can substitute a double.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	return cmd.Output()
}

// Loader decodes uploaded bytes into plain text according to the detected
// source format.
type Loader struct {
	pdfCommand string
	runner     CommandRunner
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPDFCommand overrides the external binary used for PDF extraction.
func WithPDFCommand(cmd string) LoaderOption {
	return func(l *Loader) {
		if strings.TrimSpace(cmd) != "" {
			l.pdfCommand = cmd
		}
	}
}

// WithCommandRunner overrides the command runner, used in tests.
func WithCommandRunner(r CommandRunner) LoaderOption {
	return func(l *Loader) {
		if r != nil {
			l.runner = r
		}
	}
}

// NewLoader creates a loader with the default pdftotext command.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		pdfCommand: "pdftotext",
		runner:     execRunner{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load decodes the raw bytes of a document named filename into plain text.
func (l *Loader) Load(ctx context.Context, filename string, data []byte) (string, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatTXT:
		text, err = decodePlainText(data)
	case FormatDOCX:
		text, err = decodeDOCX(data)
	case FormatPDF:
		text, err = l.decodePDF(ctx, data)
	default:
		return "", ErrUnsupportedFormat
	}
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", format, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("decode %s: document contains no text", format)
	}
	return text, nil
}

func decodePlainText(data []byte) (string, error) {
	text := string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")))
	return text, nil
}

// docx carries its body in word/document.xml inside a zip container; the
// visible text lives in <w:t> elements, paragraphs in <w:p>.
func decodeDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open container: %w", err)
	}

	var docXML []byte
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if docXML == nil {
		return "", errors.New("document.xml not found in container")
	}

	var builder strings.Builder
	decoder := xml.NewDecoder(bytes.NewReader(docXML))
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch el := token.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(el)
			}
		}
	}

	return builder.String(), nil
}

// pdftotext reads the document from stdin and writes plain text to stdout
// when both file arguments are "-".
func (l *Loader) decodePDF(ctx context.Context, data []byte) (string, error) {
	out, err := l.runner.Run(ctx, data, l.pdfCommand, "-", "-")
	if err != nil {
		return "", fmt.Errorf("run %s: %w", l.pdfCommand, err)
	}
	return string(out), nil
}
