package configs

// PostgresConfig carries the connection settings for the primary datastore.
type PostgresConfig struct {
	Host               string       `mapstructure:"host" validate:"required"`
	Port               int          `mapstructure:"port" validate:"required"`
	DBName             string       `mapstructure:"db_name" validate:"required"`
	Auth               PostgresAuth `mapstructure:"auth" validate:"required"`
	MaxOpenConnection  int          `mapstructure:"max_open_connection"`
	MaxIdealConnection int          `mapstructure:"max_ideal_connection"`
	SSLMode            string       `mapstructure:"ssl_mode"`
}

type PostgresAuth struct {
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
}

// RedisConfig carries connection settings for the cache.
type RedisConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// AssetStoreConfig selects and configures the blob storage backend. Provider
// is either "local" or "s3".
type AssetStoreConfig struct {
	Provider string `mapstructure:"provider" validate:"required"`
	// BaseURL is the public prefix under which stored blobs are reachable.
	BaseURL string `mapstructure:"base_url" validate:"required"`
	// LocalPath is the root directory for the local provider.
	LocalPath string `mapstructure:"local_path"`

	S3Region    string `mapstructure:"s3_region"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
}
