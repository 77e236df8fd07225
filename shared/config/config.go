package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	JwtTTL          time.Duration `yaml:"jwt_ttl" validate:"required"`
	UserCacheTTL    time.Duration `yaml:"user_cache_ttl"`
	ThreadsPerPage  int           `yaml:"threads_per_page" validate:"gte=0"`
	CommentsPerPage int           `yaml:"comments_per_page" validate:"gte=0"`

	MaxTitleLength      int   `yaml:"max_title_length" validate:"gte=0"`
	MaxBodyLength       int   `yaml:"max_body_length" validate:"gte=0"`        // plain text after tag stripping
	MaxStoredBodyLength int   `yaml:"max_stored_body_length" validate:"gte=0"` // sanitized html as persisted
	MaxCommentLength    int   `yaml:"max_comment_length" validate:"gte=0"`
	ThumbnailHeight     int   `yaml:"thumbnail_height" validate:"gte=0"`
	MaxImageSize        int64 `yaml:"max_image_size" validate:"gte=0"`

	ImageStore   string   `yaml:"image_store" validate:"omitempty,oneof=fs minio"`
	MediaPath    string   `yaml:"media_path"`
	MediaBaseURL string   `yaml:"media_base_url"`
	CorsOrigins  []string `yaml:"cors_origins"`

	// Unreferenced images older than ImageGCMinAge are removed every
	// ImageGCInterval.
	ImageGCInterval time.Duration `yaml:"image_gc_interval"`
	ImageGCMinAge   time.Duration `yaml:"image_gc_min_age"`

	// SecureCookies marks the deployment as https-only and enables HSTS.
	SecureCookies bool   `yaml:"secure_cookies"`
	LogLevel      string `yaml:"log_level"`
	LogJSON       bool   `yaml:"log_json"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Minio struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type Redis struct {
	URL string `yaml:"url"` // empty disables the user cache
}

type Private struct {
	Pg     Pg     `yaml:"pg" validate:"required"`
	JwtKey string `yaml:"jwt_key" validate:"required"`
	Minio  Minio  `yaml:"minio"`
	Redis  Redis  `yaml:"redis"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

// SetDefaults fills zero values with the forum's standard limits.
func (p *Public) SetDefaults() {
	setDefault(&p.ThreadsPerPage, 1)
	setDefault(&p.CommentsPerPage, 10)
	setDefault(&p.MaxTitleLength, 128)
	setDefault(&p.MaxBodyLength, 40000)
	setDefault(&p.MaxStoredBodyLength, 40960)
	setDefault(&p.MaxCommentLength, 10000)
	setDefault(&p.ThumbnailHeight, 50)
	if p.MaxImageSize == 0 {
		p.MaxImageSize = 10 << 20
	}
	if p.UserCacheTTL == 0 {
		p.UserCacheTTL = 5 * time.Minute
	}
	if p.ImageGCInterval == 0 {
		p.ImageGCInterval = time.Hour
	}
	if p.ImageGCMinAge == 0 {
		p.ImageGCMinAge = time.Hour
	}
	if p.ImageStore == "" {
		p.ImageStore = "fs"
	}
	if p.MediaPath == "" {
		p.MediaPath = "media"
	}
	// object stores derive their own public URL
	if p.MediaBaseURL == "" && p.ImageStore == "fs" {
		p.MediaBaseURL = "/media"
	}
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	cfg.Public.SetDefaults()
	if cfg.Public.ImageStore == "minio" && cfg.Private.Minio.Endpoint == "" {
		panic("image_store is minio but minio.endpoint is not set")
	}
	return cfg
}

func (s *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
