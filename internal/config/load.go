package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: CALCANIM_LANES, CALCANIM_FFMPEG, ...
const EnvPrefix = "CALCANIM"

// Keys shared by flags, environment variables and the config file.
const (
	KeyVerbose = "verbose"
	KeyColor   = "color"
	KeyLog     = "log"
	KeyRoot    = "root"
	KeyConfig  = "config"

	KeyFFmpeg  = "ffmpeg"
	KeyFFprobe = "ffprobe"
	KeyConvimg = "convimg"
	KeyMake    = "make"

	KeyInputDir      = "input-dir"
	KeyExtensions    = "ext"
	KeyFPSList       = "fps"
	KeySizes         = "sizes"
	KeyLanes         = "lanes"
	KeyRetries       = "retries"
	KeyRetryBackoff  = "retry-backoff"
	KeyRetryMaxWait  = "retry-max-wait"
	KeySweepArchive  = "archive"
	KeySweepCompress = "compress"
	KeyLedger        = "ledger"
	KeyMetricsFile   = "metrics-file"
)

// LoadDotEnv loads KEY=value pairs from the given files (default .env) into
// the process environment. Variables already set win. A missing file is not
// an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

// NewViper returns a viper instance seeded with DefaultConfig and reading
// CALCANIM_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault(KeyColor, string(d.ColorMode))
	v.SetDefault(KeyRoot, d.Root)
	v.SetDefault(KeyFFmpeg, d.FFmpegBin)
	v.SetDefault(KeyFFprobe, d.FFprobeBin)
	v.SetDefault(KeyConvimg, d.ConvimgBin)
	v.SetDefault(KeyMake, d.MakeBin)
	v.SetDefault(KeyInputDir, d.InputDir)
	v.SetDefault(KeyExtensions, d.Extensions)
	v.SetDefault(KeyFPSList, d.FPSList)
	v.SetDefault(KeySizes, d.Sizes)
	v.SetDefault(KeyLanes, d.Lanes)
	v.SetDefault(KeyRetries, d.Retries)
	v.SetDefault(KeyRetryBackoff, d.RetryBackoff)
	v.SetDefault(KeyRetryMaxWait, d.RetryMaxWait)
	v.SetDefault(KeySweepArchive, true)
	v.SetDefault(KeySweepCompress, true)
	return v
}

// BindFlags binds every flag in the given sets to the viper key of the same
// name. An explicitly set flag then outranks env and config file values.
func BindFlags(v *viper.Viper, sets ...*pflag.FlagSet) error {
	var err error
	for _, fs := range sets {
		fs.VisitAll(func(f *pflag.Flag) {
			if err == nil {
				err = v.BindPFlag(f.Name, f)
			}
		})
	}
	return err
}

// Load resolves a Config from v: flags over environment over the config
// file (when KeyConfig names one) over defaults.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	color, err := ParseColorMode(v.GetString(KeyColor))
	if err != nil {
		return Config{}, err
	}
	cfg.ColorMode = color
	cfg.Verbose = v.GetBool(KeyVerbose)
	cfg.LogFile = v.GetString(KeyLog)
	cfg.Root = v.GetString(KeyRoot)

	cfg.FFmpegBin = v.GetString(KeyFFmpeg)
	cfg.FFprobeBin = v.GetString(KeyFFprobe)
	cfg.ConvimgBin = v.GetString(KeyConvimg)
	cfg.MakeBin = v.GetString(KeyMake)

	cfg.InputDir = v.GetString(KeyInputDir)
	cfg.Extensions = NormalizeExtensions(stringList(v.Get(KeyExtensions)))
	if cfg.FPSList, err = intList(v.Get(KeyFPSList), "fps"); err != nil {
		return Config{}, err
	}
	if cfg.Sizes, err = intList(v.Get(KeySizes), "sizes"); err != nil {
		return Config{}, err
	}
	cfg.Lanes = v.GetInt(KeyLanes)
	cfg.Retries = v.GetInt(KeyRetries)
	cfg.RetryBackoff = v.GetDuration(KeyRetryBackoff)
	cfg.RetryMaxWait = v.GetDuration(KeyRetryMaxWait)
	cfg.Archive = v.GetBool(KeySweepArchive)
	cfg.Compress = v.GetBool(KeySweepCompress)
	cfg.LedgerPath = v.GetString(KeyLedger)
	cfg.MetricsFile = v.GetString(KeyMetricsFile)
	return cfg, nil
}

// stringList accepts a slice or a comma/space separated string; env values
// arrive as the latter.
func stringList(raw any) []string {
	switch x := raw.(type) {
	case nil:
		return nil
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case []int:
		out := make([]string, 0, len(x))
		for _, e := range x {
			out = append(out, strconv.Itoa(e))
		}
		return out
	case string:
		x = strings.Trim(x, "[]")
		return strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == ' ' })
	default:
		return []string{fmt.Sprint(x)}
	}
}

func intList(raw any, name string) ([]int, error) {
	if ints, ok := raw.([]int); ok {
		return ints, nil
	}
	fields := stringList(raw)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%s must be a list of whole numbers (got %q)", name, f)
		}
		out = append(out, n)
	}
	return out, nil
}
