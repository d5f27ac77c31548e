package wire

// Auth-port command bytes (spec §4.5).
const (
	AuthCmdLogin          uint8 = 0x10
	AuthCmdCreate         uint8 = 0x20
	AuthCmdChangePassword uint8 = 0x80
)

// Auth-port response codes (spec §4.5, §8 scenario 1).
const (
	LoginSuccessful uint8 = 1
	LoginFailed     uint8 = 2
	CreateFailed    uint8 = 3
	PWChangeFailed  uint8 = 4
	MalformedPacket uint8 = 5
	SessionConflict uint8 = 6
)

// Data-port one-byte request/response types (spec §4.6).
const (
	DataSendAccountID uint8 = 1
	DataSendKey        uint8 = 2
	DataClientAccountID uint8 = 0xA1
	DataClientKey       uint8 = 0xA2
	DataServerCharList  uint8 = 3
)

// View-port incoming packet types (spec §4.7).
const (
	PktGetFeatures        uint32 = 0x26
	PktGetCharacterList   uint32 = 0x1F
	PktGetWorldList       uint32 = 0x24
	PktLoginRequest       uint32 = 0x07
	PktCreateCharacter    uint32 = 0x22
	PktCreateCharConfirm  uint32 = 0x21
	PktDeleteCharacter    uint32 = 0x14
)

// View-port outgoing packet types (spec §4.7).
const (
	PktFeaturesList  uint32 = 0x05
	PktCharacterList uint32 = 0x20
	PktWorldList     uint32 = 0x23
	PktLoginResponse uint32 = 0x0B
	PktDone          uint32 = 0x03
	PktError         uint32 = 0x04
)

// View-port error codes (spec §4.7, §7).
const (
	ErrMapConnectFailed uint32 = 305
	ErrVersionMismatch  uint32 = 331
	ErrNameAlreadyTaken uint32 = 313
	ErrCreateDenied     uint32 = 314
	ErrLoginDenied      uint32 = 321
)

// FeaturesUnknownConstant is the literal 0xAD5DE04F field in FEATURES_LIST
// whose semantics are undocumented upstream; spec §9 requires emitting it
// verbatim rather than guessing at meaning.
const FeaturesUnknownConstant uint32 = 0xAD5DE04F

// LoginResponseUnknownField is the literal "unknown=2" field embedded in
// LOGIN_RESPONSE; spec §9 requires emitting it verbatim.
const LoginResponseUnknownField uint32 = 2

// Privilege bitmask (spec §3 Account, §4.7 world list gating).
const (
	PrivEnabled      uint32 = 1 << 0
	PrivHasTestAccess uint32 = 1 << 1
)

// World-list packet header constant (spec §4.3).
const WorldListHeaderByte uint8 = 0x20

// CharacterSlotCount is the fixed number of slots in the character list
// payload (spec §4.7 "fixed-size 16-slot payload").
const CharacterSlotCount = 16

// MaxContentIDsPerAccount bounds the account's content id set (spec §3).
const MaxContentIDsPerAccount = 16
