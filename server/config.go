package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/dao/inmem"
	"github.com/dekarrin/cykparse/server/dao/sqlite"
)

// DBType is the type of a Database connection.
type DBType string

func (dbt DBType) String() string {
	return string(dbt)
}

const (
	DatabaseNone     DBType = "none"
	DatabaseSQLite   DBType = "sqlite"
	DatabaseInMemory DBType = "inmem"
)

// Token secrets must have a length within these bounds, in bytes.
const (
	MaxSecretSize = 64
	MinSecretSize = 32
)

// DefaultMaxTokens is the most tokens a parse request may give when a Config
// does not set a limit.
const DefaultMaxTokens = 256

// DefaultAdminUsername is the account EnsureAdmin is called with when nothing
// else is configured.
const DefaultAdminUsername = "admin"

// dbEngines says, per engine, whether its connection string needs a parameter
// after the ':'.
var dbEngines = map[DBType]bool{
	DatabaseInMemory: false,
	DatabaseSQLite:   true,
}

// ParseDBType parses a string found in a connection string into a DBType.
func ParseDBType(s string) (DBType, error) {
	t := DBType(strings.ToLower(s))
	if _, ok := dbEngines[t]; !ok {
		return DatabaseNone, fmt.Errorf("DB type not one of 'sqlite' or 'inmem': %q", s)
	}
	return t, nil
}

// Database says which persistence layer stores accounts and grammars.
type Database struct {
	Type DBType

	// DataDir is the directory the SQLite database file is kept in. It is
	// unused by other types.
	DataDir string
}

// Connect opens the configured store, creating the data directory if it
// needs one.
func (db Database) Connect() (dao.Store, error) {
	if err := db.Validate(); err != nil {
		return nil, err
	}

	if db.Type == DatabaseInMemory {
		return inmem.NewDatastore(), nil
	}

	if err := os.MkdirAll(db.DataDir, 0770); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := sqlite.NewDatastore(db.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite: %w", err)
	}
	return st, nil
}

// Validate returns an error if db is not a known type or lacks a field that
// its type needs.
func (db Database) Validate() error {
	needsDir, ok := dbEngines[db.Type]
	if !ok {
		return fmt.Errorf("unknown database type: %q", db.Type.String())
	}
	if needsDir && db.DataDir == "" {
		return fmt.Errorf("%s: DataDir not set to path", db.Type)
	}
	return nil
}

// ParseDBConnString parses a database connection string of the form
// "engine:params", or just "engine" for one that takes no params. For
// example, "sqlite:/data" keeps a SQLite database in /data, and "inmem" keeps
// everything in memory.
func ParseDBConnString(s string) (Database, error) {
	engine, param, _ := strings.Cut(s, ":")
	param = strings.TrimSpace(param)

	t, err := ParseDBType(strings.TrimSpace(engine))
	if err != nil {
		return Database{}, fmt.Errorf("unsupported DB engine: %w", err)
	}

	needsParam := dbEngines[t]
	switch {
	case needsParam && param == "":
		return Database{}, fmt.Errorf("%s DB engine requires path to data directory after ':'", t)
	case !needsParam && param != "":
		return Database{}, fmt.Errorf("%s DB engine takes no params, but got %q", t, param)
	}

	return Database{Type: t, DataDir: param}, nil
}

// Config holds everything that can be set on a CYKServer.
type Config struct {
	// TokenSecret signs every issued token. If not set, a fixed default is
	// used, which is only fit for testing.
	TokenSecret []byte

	// DB is where accounts and grammars are kept. If not set, they are kept in
	// memory.
	DB Database

	// UnauthDelayMillis is how long to wait before answering a request that
	// failed auth or permission checks, to slow down guessing. 0 means the
	// default of 1000; a negative value means no delay.
	UnauthDelayMillis int

	// MaxTokens is the most tokens that a single parse request may give. 0
	// means DefaultMaxTokens; a negative value means no limit.
	MaxTokens int

	// PasswordCost is the bcrypt cost of stored passwords. 0 means the default
	// of package cyksvc.
	PasswordCost int
}

// UnauthDelay gives UnauthDelayMillis as a time.Duration, which is zero when
// the delay is disabled.
func (cfg Config) UnauthDelay() time.Duration {
	if cfg.UnauthDelayMillis < 1 {
		return 0
	}
	return time.Duration(cfg.UnauthDelayMillis) * time.Millisecond
}

// FillDefaults returns a copy of cfg with every unset field given its
// default.
func (cfg Config) FillDefaults() Config {
	if cfg.TokenSecret == nil {
		cfg.TokenSecret = []byte("DEFAULT_TOKEN_SECRET-DO_NOT_USE_IN_PROD!")
	}
	if cfg.DB.Type == "" || cfg.DB.Type == DatabaseNone {
		cfg.DB = Database{Type: DatabaseInMemory}
	}
	if cfg.UnauthDelayMillis == 0 {
		cfg.UnauthDelayMillis = 1000
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return cfg
}

// Validate returns an error if a field of cfg is unset or invalid. To use
// defaults for unset fields, call it on the result of FillDefaults.
func (cfg Config) Validate() error {
	if n := len(cfg.TokenSecret); n < MinSecretSize || n > MaxSecretSize {
		return fmt.Errorf("token secret: must be %d to %d bytes, but is %d", MinSecretSize, MaxSecretSize, n)
	}
	if err := cfg.DB.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if cfg.MaxTokens == 0 {
		return fmt.Errorf("max tokens: must be set")
	}
	return nil
}

// FileConfig is the contents of a server config file. Every key is optional.
type FileConfig struct {
	Listen            string `toml:"listen"`
	TokenSecret       string `toml:"token_secret"`
	Database          string `toml:"database"`
	UnauthDelayMillis int    `toml:"unauth_delay_ms"`
	MaxTokens         int    `toml:"max_tokens"`

	// Admin and AdminPassword are the credentials of the account created at
	// startup if it does not exist yet.
	Admin         string `toml:"admin"`
	AdminPassword string `toml:"admin_password"`
}

// LoadConfigFile reads a server config file in TOML format. Keys it does not
// know are an error.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig

	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return FileConfig{}, fmt.Errorf("%q: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return FileConfig{}, fmt.Errorf("%q: unknown key %q", path, undec[0].String())
	}

	return fc, nil
}

// Config gives the server Config that fc describes. Keys that fc does not set
// are left unset.
func (fc FileConfig) Config() (Config, error) {
	cfg := Config{
		UnauthDelayMillis: fc.UnauthDelayMillis,
		MaxTokens:         fc.MaxTokens,
	}

	if fc.TokenSecret != "" {
		cfg.TokenSecret = []byte(fc.TokenSecret)
	}
	if fc.Database != "" {
		db, err := ParseDBConnString(fc.Database)
		if err != nil {
			return Config{}, fmt.Errorf("database: %w", err)
		}
		cfg.DB = db
	}

	return cfg, nil
}
