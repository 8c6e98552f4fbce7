package core

// MD25 dual H-bridge register map. The bus must run at 100kHz or less.
const (
	md25RegSpeed1       = 0x00 // motor1 speed (mode 0,1) or both motors speed (mode 2,3)
	md25RegSpeed2       = 0x01 // motor2 speed (mode 0,1) or turn (mode 2,3)
	md25RegEncoder1     = 0x02 // 4 bytes, 0x02-0x05, MSB first
	md25RegEncoder2     = 0x06 // 4 bytes, 0x06-0x09, MSB first
	md25RegBatteryVolts = 0x0A // deci-volts
	md25RegMotorCur1    = 0x0B // deci-amps
	md25RegMotorCur2    = 0x0C
	md25RegSoftwareRev  = 0x0D
	md25RegAccel        = 0x0E // 1-10
	md25RegMode         = 0x0F
	md25RegCmd          = 0x10
)

// MD25 command register opcodes. Address-change commands are not exposed.
const (
	md25CmdResetEncoders   = 0x20
	md25CmdAutoSpeedRegOff = 0x30
	md25CmdAutoSpeedRegOn  = 0x31
	md25CmdAutoTimeoutOff  = 0x32
	md25CmdAutoTimeoutOn   = 0x33
)

// MotorMode selects how the two speed registers are interpreted.
type MotorMode uint8

const (
	// ModeIndependent: speed1/speed2 drive motor1/motor2, 0 reverse, 128 stop, 255 forward.
	ModeIndependent MotorMode = 0
	// ModeIndependentSigned: as above with signed speeds (-128..127).
	ModeIndependentSigned MotorMode = 1
	// ModeCombined: speed1 drives both motors, speed2 is the turn value.
	ModeCombined MotorMode = 2
	// ModeCombinedSigned: combined mode with signed values.
	ModeCombinedSigned MotorMode = 3
)

// Speed values for the unsigned modes.
const (
	SpeedFullReverse uint8 = 0
	SpeedStop        uint8 = 128
	SpeedFullForward uint8 = 255
)
