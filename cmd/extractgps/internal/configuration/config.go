package configuration

import "github.com/adampresley/configinator"

type Config struct {
	AwsEndpointUrl     string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"AWS endpoint URL"`
	AwsRegion          string `flag:"awsregion" env:"AWS_REGION" default:"us-central-1" description:"AWS region"`
	AwsAccessKeyId     string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsSecretAccessKey string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	AwsBucket          string `flag:"awsbucket" env:"AWS_BUCKET" default:"" description:"S3 bucket to upload originals to. Empty skips the upload"`
	BaseURL            string `flag:"baseurl" env:"BASE_URL" default:"/street-view/" description:"URL prefix for images that are not uploaded"`
	DSN                string `flag:"dsn" env:"DSN" default:"" description:"Image catalog data source name. Empty skips the catalog"`
	ImageFolder        string `flag:"imagefolder" env:"IMAGE_FOLDER" default:"street-view" description:"S3 folder for uploaded panoramas"`
	ImagesDir          string `flag:"imagesdir" env:"IMAGES_DIR" default:"./public/street-view" description:"Directory holding the panorama images"`
	LogLevel           string `flag:"loglevel" env:"LOG_LEVEL" default:"info" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxWorkers         int    `flag:"maxworkers" env:"MAX_WORKERS" default:"4" description:"Maximum number of images read or uploaded at once"`
	OutputFile         string `flag:"outputfile" env:"OUTPUT_FILE" default:"./data/image_data.json" description:"Data file to write"`
	PathFile           string `flag:"pathfile" env:"PATH_FILE" default:"./data/path_data.json" description:"Path file to write. Empty skips it"`
	StoreBaseURL       string `flag:"storebaseurl" env:"STORE_BASE_URL" default:"/api/images" description:"URL prefix the website serves uploaded images under"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}
