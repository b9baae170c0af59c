package config

import (
	"fmt"
	"runtime"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the airdrop CLI
const (
	EnvAirdropAllowlist       = "AIRDROP_ALLOWLIST"
	EnvAirdropOutput          = "AIRDROP_OUTPUT"
	EnvAirdropWorkers         = "AIRDROP_WORKERS"
	EnvAirdropVerbose         = "AIRDROP_VERBOSE"
	EnvAirdropLogFile         = "AIRDROP_LOG_FILE"
	EnvAirdropPersistenceType = "AIRDROP_PERSISTENCE_TYPE"
	EnvAirdropDataDir         = "AIRDROP_DATA_DIR"
	EnvAirdropRedisAddress    = "AIRDROP_REDIS_ADDRESS"
	EnvAirdropRedisPassword   = "AIRDROP_REDIS_PASSWORD"
	EnvAirdropRedisDB         = "AIRDROP_REDIS_DB"
	EnvAirdropRedisKeyPrefix  = "AIRDROP_REDIS_KEY_PREFIX"
)

type PersistenceType string

func (p PersistenceType) String() string {
	return string(p)
}

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

const (
	DefaultDataDir      = "./airdrop-data"
	DefaultRedisAddress = "localhost:6379"

	// MaxWorkers caps the hashing/proof goroutines regardless of configuration
	MaxWorkers = 1024
)

// GetSupportedPersistenceTypes returns every persistence backend the CLI can use
func GetSupportedPersistenceTypes() []PersistenceType {
	return []PersistenceType{
		PersistenceTypeMemory,
		PersistenceTypeBadger,
		PersistenceTypeRedis,
	}
}

// GetSupportedPersistenceTypesString returns supported backends for CLI help
func GetSupportedPersistenceTypesString() string {
	types := GetSupportedPersistenceTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

type PersistenceConfig struct {
	Type PersistenceType `json:"type" yaml:"type"`

	// DataDir is the badger database directory
	DataDir string `json:"dataDir" yaml:"dataDir"`

	RedisAddress   string `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword  string `json:"redisPassword" yaml:"redisPassword"`
	RedisDB        int    `json:"redisDb" yaml:"redisDb"`
	RedisKeyPrefix string `json:"redisKeyPrefix" yaml:"redisKeyPrefix"`
}

func (pc *PersistenceConfig) Validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch pc.Type {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if pc.DataDir == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataDir"), "dataDir is required for badger persistence"))
		}
	case PersistenceTypeRedis:
		if pc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for redis persistence"))
		}
		if pc.RedisDB < 0 || pc.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDb"), pc.RedisDB, "must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), pc.Type, []string{
			PersistenceTypeMemory.String(),
			PersistenceTypeBadger.String(),
			PersistenceTypeRedis.String(),
		}))
	}

	return allErrors
}

// AirdropConfig represents the complete configuration for the airdrop CLI
type AirdropConfig struct {
	// Input / output
	AllowlistPath string `json:"allowlist_path"`
	OutputPath    string `json:"output_path"`

	// Workers bounds hashing and proof goroutines; 0 means GOMAXPROCS
	Workers int `json:"workers"`

	// Operational settings
	Verbose bool   `json:"verbose"`
	LogFile string `json:"log_file"`

	Persistence PersistenceConfig `json:"persistence"`
}

// Validate validates the settings shared by every command
func (c *AirdropConfig) Validate() error {
	var allErrors field.ErrorList

	if c.Workers < 0 || c.Workers > MaxWorkers {
		allErrors = append(allErrors, field.Invalid(field.NewPath("workers"), c.Workers,
			fmt.Sprintf("must be between 0-%d", MaxWorkers)))
	}

	allErrors = append(allErrors, c.Persistence.Validate(field.NewPath("persistence"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// ValidateGenerate additionally requires an allowlist to read
func (c *AirdropConfig) ValidateGenerate() error {
	if c.AllowlistPath == "" {
		return field.Required(field.NewPath("allowlistPath"), "allowlist path is required")
	}
	return c.Validate()
}

// EffectiveWorkers resolves Workers to a concrete goroutine count
func (c *AirdropConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
