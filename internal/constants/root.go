package constants

const (
	AppName            = "chime"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/chime"
	DefaultDataPath    = "~/.config/chime/chime.db"
	ConfigFileName     = "config.yaml"
	EnvFileName        = ".env"
	Version            = "v0.3.0"

	// KeyringDataPath tells the CLI to read the PostgreSQL connection string from the OS keyring
	KeyringDataPath = "keyring"

	// Daemon constants
	DefaultListenAddr      = "127.0.0.1:7845"
	LockfileName           = "chime.lock"
	SecretHeader           = "X-Chime-Secret"
	ShutdownTimeoutSeconds = 5
	RequestTimeoutSeconds  = 10

	// Autostart constants
	AutostartIdentifier = "com.julianstephens.chime"
	AutostartFileName   = "chime.desktop"
	// ServeCommand is the subcommand registered to run at login
	ServeCommand = "serve"

	// Audio constants
	MaxAudioFileBytes = 512 * 1024 * 1024
	MinVolume         = 0
	MaxVolume         = 100
)

// SupportedAudioExtensions lists the file extensions accepted for playback, lower-case without dot
var SupportedAudioExtensions = []string{"mp3", "wav", "flac", "ogg", "oga", "m4a", "aac"}
