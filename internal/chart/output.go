package chart

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DeliveryInline Delivery = "inline" // base64 data URIs, nothing touches the disk
	DeliveryFile   Delivery = "file"   // files in a directory unique to one invocation
)

type Delivery string

// ParseDelivery accepts "inline" and "file".
func ParseDelivery(s string) (Delivery, error) {
	d := Delivery(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DeliveryInline, DeliveryFile:
		return d, nil
	}
	return "", fmt.Errorf("invalid delivery: %s", s)
}

// Artifact is one encoded chart.
type Artifact struct {
	Name     string      `json:"name"`
	Format   ImageFormat `json:"format"`
	MIMEType string      `json:"mimeType"`
	Size     int         `json:"size"`
	DataURI  string      `json:"dataUri,omitempty"`
	Path     string      `json:"path,omitempty"`
}

// Sink receives encoded charts of a single invocation.
type Sink interface {
	Put(name string, format ImageFormat, data []byte) (Artifact, error)
}

// InlineSink returns charts as data URIs.
type InlineSink struct{}

func (InlineSink) Put(name string, format ImageFormat, data []byte) (Artifact, error) {
	return Artifact{
		Name:     name,
		Format:   format,
		MIMEType: format.MIMEType(),
		Size:     len(data),
		DataURI:  "data:" + format.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// DirSink writes charts into a directory created for one invocation, named
// <UTC timestamp>_<uuid>, so concurrent invocations never share a path.
type DirSink struct {
	dir string
}

// NewDirSink creates a fresh directory under base.
func NewDirSink(base string) (*DirSink, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory '%s': %w", base, err)
	}

	dir := filepath.Join(base, fmt.Sprintf("%s_%s", time.Now().UTC().Format("20060102_150405"), uuid.NewString()))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating invocation directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Dir returns the invocation directory.
func (s *DirSink) Dir() string {
	return s.dir
}

func (s *DirSink) Put(name string, format ImageFormat, data []byte) (Artifact, error) {
	path := filepath.Join(s.dir, name+format.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return Artifact{
		Name:     name,
		Format:   format,
		MIMEType: format.MIMEType(),
		Size:     len(data),
		Path:     path,
	}, nil
}

// NewSink returns the sink for a delivery mode. base is only used by file
// delivery.
func NewSink(d Delivery, base string) (Sink, error) {
	switch d {
	case DeliveryInline:
		return InlineSink{}, nil
	case DeliveryFile:
		return NewDirSink(base)
	}
	return nil, fmt.Errorf("invalid delivery: %s", d)
}
