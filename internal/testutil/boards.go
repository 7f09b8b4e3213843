package testutil

// Device is a component name together with the names it directly requires.
type Device struct {
	Name     string
	Requires []string
}

// Device paths of the nRF5340 display board.
const (
	Clock   = "/soc/peripheral@50000000/clock@5000"
	GPIO1   = "/soc/peripheral@50000000/gpio@842800"
	GPIO0   = "/soc/peripheral@50000000/gpio@842500"
	UART    = "/soc/peripheral@50000000/uart@8000"
	Mbox    = "/soc/peripheral@50000000/mbox@2a000"
	SPI4    = "/soc/peripheral@50000000/spi@a000"
	SPI3    = "/soc/peripheral@50000000/spi@9000"
	Display = "/soc/peripheral@50000000/spi@a000/gc9a01@0"
	IMU     = "/soc/peripheral@50000000/spi@9000/bmi270@0"
)

// DisplayBoard returns the nine devices of the nRF5340 display board in
// registration order, so they receive handles 1 through 9.
func DisplayBoard() []Device {
	return []Device{
		{Name: Clock},
		{Name: GPIO1},
		{Name: GPIO0},
		{Name: UART},
		{Name: Mbox},
		{Name: SPI4, Requires: []string{GPIO1}},
		{Name: SPI3, Requires: []string{GPIO0}},
		{Name: Display, Requires: []string{GPIO1, SPI4}},
		{Name: IMU, Requires: []string{SPI3}},
	}
}

// DisplayBoardHCL is DisplayBoard written as a hardware description.
const DisplayBoardHCL = `
alias "display_spi" {
  path = "/soc/peripheral@50000000/spi@a000"
}

device "/soc/peripheral@50000000/clock@5000" {
  compatible = "nordic,nrf-clock"
}

device "/soc/peripheral@50000000/gpio@842800" {
  compatible = "nordic,nrf-gpio"
}

device "/soc/peripheral@50000000/gpio@842500" {
  compatible = "nordic,nrf-gpio"
}

device "/soc/peripheral@50000000/uart@8000" {
  compatible = "nordic,nrf-uarte"
}

device "/soc/peripheral@50000000/mbox@2a000" {
  compatible = "nordic,mbox-nrf-ipc"
}

device "/soc/peripheral@50000000/spi@a000" {
  compatible = "nordic,nrf-spim"
  requires   = ["/soc/peripheral@50000000/gpio@842800"]
}

device "/soc/peripheral@50000000/spi@9000" {
  compatible = "nordic,nrf-spim"
  requires   = ["/soc/peripheral@50000000/gpio@842500"]
}

device "/soc/peripheral@50000000/spi@a000/gc9a01@0" {
  compatible   = "galaxycore,gc9x01x"
  requires     = ["/soc/peripheral@50000000/gpio@842800", alias.display_spi]
  init_timeout = "2s"
}

device "/soc/peripheral@50000000/spi@9000/bmi270@0" {
  compatible = "bosch,bmi270"
  requires   = ["/soc/peripheral@50000000/spi@9000"]
}
`
