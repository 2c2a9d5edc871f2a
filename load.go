package kproc

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/kproc/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads config from any afs supported URL. Files with .hcl extension are decoded as
// HCL, anything else as YAML.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret, err := DecodeConfig(data, URL)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded config", "url", URL, "policy", ret.Kernel.Policy, "cpus", ret.Kernel.CPUs)
	return ret, nil
}

// DecodeConfig decodes config data; filename selects the format
func DecodeConfig(data []byte, filename string) (*Config, error) {
	ret := &Config{}
	switch strings.ToLower(path.Ext(filename)) {
	case ".hcl":
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCL(data, filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL config %s: %s", filename, diags.Error())
		}
		if diags = gohcl.DecodeBody(file.Body, nil, ret); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL config %s: %s", filename, diags.Error())
		}
	default:
		if err := yaml.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", filename, err)
		}
	}
	ret.Init()
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return ret, nil
}
