// I2C register access and bus discovery.

package core

import (
	"strconv"
	"sync"
	"time"

	"tinygo.org/x/drivers"

	"twipi/errcode"
)

// Scan range: addresses below 8 and above 119 are reserved by the I2C standard.
const (
	firstScanAddress I2CAddress = 8
	lastScanAddress  I2CAddress = 119
)

// Well-known device addresses on the robot.
const (
	RightOLEDAddress I2CAddress = 0x3C
	LeftOLEDAddress  I2CAddress = 0x3D
	LCDAddress       I2CAddress = 0x3F
	MD25Address      I2CAddress = 0xB0 >> 1 // datasheet gives the 8-bit form
	MPU6050Address   I2CAddress = 0x68
)

// UnknownDevice labels an address that is not in the known device table.
const UnknownDevice = "Unknown"

var knownDevices = map[I2CAddress]string{
	RightOLEDAddress: "Right OLED",
	LeftOLEDAddress:  "Left OLED",
	LCDAddress:       "16x2 LCD display",
	MD25Address:      "MD25 motor controller",
	MPU6050Address:   "MPU6050 IMU",
}

// IdentifyDevice returns the label of a known address, or UnknownDevice.
func IdentifyDevice(addr I2CAddress) string {
	if label, ok := knownDevices[addr]; ok {
		return label
	}
	return UnknownDevice
}

// BusDeviceRecord is one responding address found by Scan.
type BusDeviceRecord struct {
	Bus     I2CBusID
	Address I2CAddress
	Label   string
}

func (r BusDeviceRecord) String() string {
	return strconv.Itoa(int(r.Address)) + " (0x" + strconv.FormatUint(uint64(r.Address), 16) + ") - " + r.Label
}

// BusOptions tune the blocking behaviour of a RegisterBus.
type BusOptions struct {
	// ReadTimeout bounds ReadRegister. Zero waits forever, like the bare
	// Wire.available() loop.
	ReadTimeout time.Duration
	// PollInterval is the pause between read attempts.
	PollInterval time.Duration
	// ScanPause is the pause after each responding address during Scan.
	ScanPause time.Duration
}

// RegisterBus serialises register-addressed transactions on one I2C bus.
// Only one transaction is in flight per bus; Transaction extends that
// guarantee across a sequence of register accesses.
type RegisterBus struct {
	mu   sync.Mutex
	id   I2CBusID
	opts BusOptions
	cfg  I2CBusConfig
	tx   drivers.I2C

	devices []BusDeviceRecord
}

// NewRegisterBus creates an unconfigured bus handle.
func NewRegisterBus(id I2CBusID, opts BusOptions) *RegisterBus {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Millisecond
	}
	return &RegisterBus{id: id, opts: opts}
}

// ID returns the bus number
func (b *RegisterBus) ID() I2CBusID { return b.id }

// Config returns the electrical parameters the bus was configured with.
func (b *RegisterBus) Config() I2CBusConfig { return b.cfg }

// Configure initializes the bus. It must be called exactly once, before any
// other operation.
func (b *RegisterBus) Configure(d I2CDriver, cfg I2CBusConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tx != nil {
		return errcode.New(errcode.InvalidParams, "configure", "bus "+strconv.Itoa(int(b.id))+" already configured", nil)
	}
	if err := d.ConfigureBus(b.id, cfg); err != nil {
		return errcode.New(errcode.Error, "configure", "bus "+strconv.Itoa(int(b.id)), err)
	}
	tx, err := d.Bus(b.id)
	if err != nil {
		return errcode.New(errcode.BusNotConfigured, "configure", "bus "+strconv.Itoa(int(b.id)), err)
	}
	b.tx = tx
	b.cfg = cfg

	logger.Info().Str("component", compI2C).
		Uint8("bus", uint8(b.id)).
		Uint32("speed", cfg.Frequency).
		Uint32("sda", uint32(cfg.SDA)).
		Uint32("scl", uint32(cfg.SCL)).
		Msg("configured I2C bus")
	return nil
}

// Tx is a handle valid only inside a Transaction callback.
type Tx struct {
	b    *RegisterBus
	addr I2CAddress
}

// Transaction runs fn with the bus locked for addr. No other caller can
// interleave a transaction on this bus until fn returns.
func (b *RegisterBus) Transaction(addr I2CAddress, fn func(tx *Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx == nil {
		return b.notConfigured("transaction")
	}
	return fn(&Tx{b: b, addr: addr})
}

// WriteRegister writes the register selector followed by value.
func (t *Tx) WriteRegister(reg byte, value ...byte) error {
	return t.b.writeLocked(t.addr, reg, value)
}

// ReadRegister reads n (1-4) bytes starting at reg, most significant first.
func (t *Tx) ReadRegister(reg byte, n int) (uint32, error) {
	return t.b.readRegisterLocked(t.addr, reg, n)
}

// ReadBytes fills buf starting at reg.
func (t *Tx) ReadBytes(reg byte, buf []byte) error {
	return t.b.readLocked(t.addr, reg, buf)
}

// WriteRegister writes the register selector then the value byte(s) to addr.
func (b *RegisterBus) WriteRegister(addr I2CAddress, reg byte, value ...byte) error {
	return b.Transaction(addr, func(tx *Tx) error {
		return tx.WriteRegister(reg, value...)
	})
}

// ReadRegister selects reg then reads n (1-4) bytes assembled MSB first.
// It blocks until the device answers or ReadTimeout expires.
func (b *RegisterBus) ReadRegister(addr I2CAddress, reg byte, n int) (uint32, error) {
	var v uint32
	err := b.Transaction(addr, func(tx *Tx) error {
		var err error
		v, err = tx.ReadRegister(reg, n)
		return err
	})
	return v, err
}

// ReadBytes selects reg then fills buf.
func (b *RegisterBus) ReadBytes(addr I2CAddress, reg byte, buf []byte) error {
	return b.Transaction(addr, func(tx *Tx) error {
		return tx.ReadBytes(reg, buf)
	})
}

func (b *RegisterBus) writeLocked(addr I2CAddress, reg byte, value []byte) error {
	w := make([]byte, 0, 1+len(value))
	w = append(w, reg)
	w = append(w, value...)
	if err := b.tx.Tx(uint16(addr), w, nil); err != nil {
		return b.opErr(errcode.Nack, "write_register", addr, reg, err)
	}
	return nil
}

func (b *RegisterBus) readRegisterLocked(addr I2CAddress, reg byte, n int) (uint32, error) {
	if n < 1 || n > 4 {
		return 0, errcode.New(errcode.InvalidParams, "read_register", "byte count must be 1-4", nil)
	}
	var buf [4]byte
	if err := b.readLocked(addr, reg, buf[:n]); err != nil {
		return 0, err
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<8 | uint32(buf[i])
	}
	return v, nil
}

// readLocked retries the select-then-read sequence until the device answers.
func (b *RegisterBus) readLocked(addr I2CAddress, reg byte, buf []byte) error {
	sel := [1]byte{reg}
	var deadline time.Time
	if b.opts.ReadTimeout > 0 {
		deadline = time.Now().Add(b.opts.ReadTimeout)
	}
	for {
		err := b.tx.Tx(uint16(addr), sel[:], buf)
		if err == nil {
			return nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return b.opErr(errcode.Timeout, "read_register", addr, reg, err)
		}
		time.Sleep(b.opts.PollInterval)
	}
}

// Scan probes every non-reserved address with a zero-length write and
// rebuilds the device table from the addresses that acknowledge.
func (b *RegisterBus) Scan() ([]BusDeviceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx == nil {
		return nil, b.notConfigured("scan")
	}

	var found []BusDeviceRecord
	for addr := firstScanAddress; addr <= lastScanAddress; addr++ {
		if err := b.tx.Tx(uint16(addr), nil, nil); err != nil {
			continue
		}
		found = append(found, BusDeviceRecord{Bus: b.id, Address: addr, Label: IdentifyDevice(addr)})
		if b.opts.ScanPause > 0 {
			time.Sleep(b.opts.ScanPause)
		}
	}
	b.devices = found

	logger.Info().Str("component", compI2C).
		Uint8("bus", uint8(b.id)).
		Int("count", len(found)).
		Msg("scanned I2C bus")
	for _, rec := range found {
		logger.Info().Str("component", compI2C).
			Uint8("bus", uint8(b.id)).
			Uint8("address", uint8(rec.Address)).
			Str("label", rec.Label).
			Msg(rec.String())
	}
	return b.devicesLocked(), nil
}

// Devices returns a copy of the table built by the last Scan.
func (b *RegisterBus) Devices() []BusDeviceRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.devicesLocked()
}

func (b *RegisterBus) devicesLocked() []BusDeviceRecord {
	out := make([]BusDeviceRecord, len(b.devices))
	copy(out, b.devices)
	return out
}

// Present reports whether addr answered the last Scan.
func (b *RegisterBus) Present(addr I2CAddress) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range b.devices {
		if rec.Address == addr {
			return true
		}
	}
	return false
}

func (b *RegisterBus) notConfigured(op string) error {
	return errcode.New(errcode.BusNotConfigured, op, "bus "+strconv.Itoa(int(b.id)), nil)
}

func (b *RegisterBus) opErr(c errcode.Code, op string, addr I2CAddress, reg byte, cause error) error {
	return errcode.New(c, op,
		"bus "+strconv.Itoa(int(b.id))+" addr 0x"+strconv.FormatUint(uint64(addr), 16)+
			" reg 0x"+strconv.FormatUint(uint64(reg), 16), cause)
}

// IsTimeout reports whether err is a bus read that gave up waiting.
func IsTimeout(err error) bool {
	return errcode.Of(err) == errcode.Timeout
}
