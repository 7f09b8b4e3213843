// Package hwdesc loads hardware descriptions written in HCL and turns them
// into the ordered (name, required names) list that the dependency graph is
// built from.
//
// A description declares devices by their devicetree path, and optional
// aliases that `requires` expressions may reference:
//
//	alias "display_spi" {
//	  path = "/soc/peripheral@50000000/spi@a000"
//	}
//
//	device "/soc/peripheral@50000000/spi@a000/gc9a01@0" {
//	  compatible   = "galaxycore,gc9x01x"
//	  requires     = ["/soc/peripheral@50000000/gpio@842800", alias.display_spi]
//	  init_timeout = "2s"
//	}
//
// Devices keep their declaration order across files; files are read in
// lexical path order.
package hwdesc
