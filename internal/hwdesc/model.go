package hwdesc

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// Device is one component of a hardware description.
type Device struct {
	// Name is the devicetree path of the device.
	Name string
	// Compatible selects the driver that brings the device up.
	Compatible string
	// Requires lists the names of the devices that must be ready first.
	Requires []string
	// InitTimeout bounds the driver's bring-up. Zero means the caller's default.
	InitTimeout time.Duration
}

// Options tune how descriptions are interpreted.
type Options struct {
	// ImplicitParent makes every device require its devicetree parent when
	// the parent is itself declared, as a bus child requires its bus.
	ImplicitParent bool
}

// fileRoot decodes all top-level blocks of a description file.
type fileRoot struct {
	Aliases []*aliasBlock  `hcl:"alias,block"`
	Devices []*deviceBlock `hcl:"device,block"`
}

type aliasBlock struct {
	Name string `hcl:"name,label"`
	Path string `hcl:"path"`
}

type deviceBlock struct {
	Path        string         `hcl:"path,label"`
	Compatible  string         `hcl:"compatible,optional"`
	Requires    hcl.Expression `hcl:"requires,optional"`
	InitTimeout string         `hcl:"init_timeout,optional"`
}
