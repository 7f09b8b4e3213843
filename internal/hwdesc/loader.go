package hwdesc

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/devinit/internal/ctxlog"
	"github.com/specialistvlad/devinit/internal/devpath"
	"github.com/specialistvlad/devinit/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader reads hardware descriptions from HCL files.
type Loader struct {
	opts Options
}

// NewLoader creates a new description loader.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Load parses every .hcl file found under paths and returns the declared
// devices in declaration order.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]Device, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Description loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl description files found in %v", paths)
	}
	logger.Debug("Discovered description files.", "count", len(files))

	parser := hclparse.NewParser()
	var roots []*fileRoot
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse description %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode description %s: %w", file, diags)
		}
		roots = append(roots, &root)
	}

	// Aliases are global, so they are collected from every file before any
	// requires expression is evaluated.
	evalCtx, err := aliasContext(roots)
	if err != nil {
		return nil, err
	}

	var devices []Device
	seen := make(map[string]bool)
	for _, root := range roots {
		for _, block := range root.Devices {
			dev, err := translateDevice(ctx, block, evalCtx)
			if err != nil {
				return nil, err
			}
			if seen[dev.Name] {
				return nil, fmt.Errorf("device %q declared more than once", dev.Name)
			}
			seen[dev.Name] = true
			devices = append(devices, dev)
		}
	}

	if l.opts.ImplicitParent {
		addParentRequirements(ctx, devices, seen)
	}

	logger.Debug("Description loading complete.", "devices", len(devices))
	return devices, nil
}

func aliasContext(roots []*fileRoot) (*hcl.EvalContext, error) {
	aliases := make(map[string]cty.Value)
	for _, root := range roots {
		for _, a := range root.Aliases {
			if _, exists := aliases[a.Name]; exists {
				return nil, fmt.Errorf("alias %q declared more than once", a.Name)
			}
			if _, err := devpath.Parse(a.Path); err != nil {
				return nil, fmt.Errorf("alias %q: %w", a.Name, err)
			}
			aliases[a.Name] = cty.StringVal(a.Path)
		}
	}

	aliasVal := cty.EmptyObjectVal
	if len(aliases) > 0 {
		aliasVal = cty.ObjectVal(aliases)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"alias": aliasVal},
	}, nil
}

func translateDevice(ctx context.Context, block *deviceBlock, evalCtx *hcl.EvalContext) (Device, error) {
	if _, err := devpath.Parse(block.Path); err != nil {
		return Device{}, fmt.Errorf("device %q: %w", block.Path, err)
	}

	dev := Device{
		Name:       block.Path,
		Compatible: block.Compatible,
	}

	if isExprDefined(ctx, block.Requires, "requires") {
		requires, err := evalStringList(block.Requires, evalCtx)
		if err != nil {
			return Device{}, fmt.Errorf("device %q: requires: %w", block.Path, err)
		}
		for _, req := range requires {
			if _, err := devpath.Parse(req); err != nil {
				return Device{}, fmt.Errorf("device %q: requires: %w", block.Path, err)
			}
		}
		dev.Requires = requires
	}

	if block.InitTimeout != "" {
		d, err := time.ParseDuration(block.InitTimeout)
		if err != nil {
			return Device{}, fmt.Errorf("device %q: invalid init_timeout: %w", block.Path, err)
		}
		if d < 0 {
			return Device{}, fmt.Errorf("device %q: init_timeout cannot be negative", block.Path)
		}
		dev.InitTimeout = d
	}

	return dev, nil
}

// addParentRequirements makes each device require its declared parent.
func addParentRequirements(ctx context.Context, devices []Device, declared map[string]bool) {
	logger := ctxlog.FromContext(ctx)
	for i := range devices {
		parent, ok := devpath.MustParse(devices[i].Name).Parent()
		if !ok || parent.IsRoot() {
			continue
		}
		parentName := parent.String()
		if !declared[parentName] || slices.Contains(devices[i].Requires, parentName) {
			continue
		}
		logger.Debug("Adding implicit parent requirement.", "device", devices[i].Name, "parent", parentName)
		devices[i].Requires = append(devices[i].Requires, parentName)
	}
}
