package configuration

import (
	"strings"

	"github.com/adampresley/configinator"
)

type Config struct {
	AllowedOrigins     string `flag:"allowedorigins" env:"ALLOWED_ORIGINS" default:"*" description:"Comma separated origins allowed to call the API"`
	AwsEndpointUrl     string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"AWS endpoint URL"`
	AwsRegion          string `flag:"awsregion" env:"AWS_REGION" default:"us-central-1" description:"AWS region"`
	AwsAccessKeyId     string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsSecretAccessKey string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	AwsBucket          string `flag:"awsbucket" env:"AWS_BUCKET" default:"" description:"S3 bucket holding panoramas. Empty disables the image store"`
	CoordinateMode     string `flag:"coordinatemode" env:"COORDINATE_MODE" default:"snapped" description:"Default coordinate mode, 'snapped' or 'original'"`
	DataFile           string `flag:"datafile" env:"DATA_FILE" default:"./data/image_data.json" description:"Data file used when DATA_SOURCE is 'file'"`
	DataSource         string `flag:"datasource" env:"DATA_SOURCE" default:"api" description:"Where features come from: 'api', 'file' or 'catalog'"`
	DSN                string `flag:"dsn" env:"DSN" default:"file:./data/streetview.db" description:"Image catalog data source name"`
	FeaturesPath       string `flag:"featurespath" env:"FEATURES_PATH" default:"/api/images" description:"Path of the feature listing on the photo server"`
	Host               string `flag:"host" env:"HOST" default:"localhost:8081" description:"The address and port to bind the HTTP server to"`
	ImageBaseURL       string `flag:"imagebaseurl" env:"IMAGE_BASE_URL" default:"/street-view/" description:"Prefix for catalog images that were never uploaded"`
	ImageFolder        string `flag:"imagefolder" env:"IMAGE_FOLDER" default:"street-view" description:"S3 folder holding panoramas"`
	LogLevel           string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxCacheWorkers    int    `flag:"mcc" env:"MAX_CACHE_WORKERS" default:"4" description:"Maximum number of concurrent cache workers"`
	ProxyOrigins       string `flag:"proxyorigins" env:"PROXY_ORIGINS" default:"" description:"Comma separated host:port values served through the image proxy. The upstream host is always included"`
	ProxyPath          string `flag:"proxypath" env:"PROXY_PATH" default:"/api/proxy" description:"Path prefix of the front end's image proxy"`
	UpstreamTimeout    int    `flag:"upstreamtimeout" env:"UPSTREAM_TIMEOUT" default:"15" description:"Seconds to wait for the photo server"`
	UpstreamURL        string `flag:"upstreamurl" env:"UPSTREAM_URL" default:"http://192.168.68.112:8000" description:"Base URL of the photo server"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}

// SplitList breaks a comma separated setting into trimmed, non-empty values.
func SplitList(value string) []string {
	result := []string{}

	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}

	return result
}
