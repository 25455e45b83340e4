// Package loader reads the four pipeline inputs from disk.
package loader

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/pipeline"
)

var (
	// ErrNotArray is returned when an input that must be a JSON array is not.
	ErrNotArray = crerr.New("input is not a JSON array")
	// ErrInvalidConfig marks a team config that fails validation.
	ErrInvalidConfig = crerr.New("invalid team config")
)

// Paths locates the input files. Roles is optional.
type Paths struct {
	Matches    string
	Registry   string
	TeamConfig string
	Roles      string
}

var validate = validator.New()

// Load reads and decodes all inputs concurrently.
func Load(ctx context.Context, p Paths) (pipeline.Inputs, error) {
	var in pipeline.Inputs
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b, err := ReadFile(gCtx, p.Matches)
		if err != nil {
			return err
		}
		in.Matches, err = DecodeMatches(b)
		return crerr.Wrapf(err, "matches %s", p.Matches)
	})
	g.Go(func() error {
		b, err := ReadFile(gCtx, p.Registry)
		if err != nil {
			return err
		}
		in.Registry, err = DecodeRegistry(b)
		return crerr.Wrapf(err, "registry %s", p.Registry)
	})
	g.Go(func() error {
		b, err := ReadFile(gCtx, p.TeamConfig)
		if err != nil {
			return err
		}
		in.Config, err = DecodeTeamConfig(b)
		return crerr.Wrapf(err, "team config %s", p.TeamConfig)
	})
	if p.Roles != "" {
		g.Go(func() error {
			b, err := ReadFile(gCtx, p.Roles)
			if err != nil {
				return err
			}
			in.Roles, err = DecodeRoles(b)
			return crerr.Wrapf(err, "roles %s", p.Roles)
		})
	}

	if err := g.Wait(); err != nil {
		return pipeline.Inputs{}, err
	}
	return in, nil
}

// ReadFile returns the file contents, decompressing *.zst files.
func ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, crerr.Wrap(err, "open input")
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, crerr.Wrapf(err, "zstd %s", path)
		}
		defer dec.Close()
		src = dec
	}

	b, err := io.ReadAll(src)
	if err != nil {
		return nil, crerr.Wrapf(err, "read %s", path)
	}
	return b, nil
}

// DecodeMatches decodes the raw match export.
func DecodeMatches(b []byte) ([]model.RawMatch, error) {
	var out []model.RawMatch
	if err := decodeArray(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeRegistry decodes the player registry.
func DecodeRegistry(b []byte) ([]model.RegistryEntry, error) {
	var out []model.RegistryEntry
	if err := decodeArray(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeRoles decodes the role annotations. An empty document is no roles.
func DecodeRoles(b []byte) ([]model.RoleAnnotation, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var out []model.RoleAnnotation
	if err := decodeArray(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeTeamConfig decodes and validates the team config.
func DecodeTeamConfig(b []byte) (*model.TeamConfig, error) {
	var cfg model.TeamConfig
	if err := sonic.Unmarshal(b, &cfg); err != nil {
		return nil, crerr.Wrap(err, "decode")
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "validate"), ErrInvalidConfig)
	}
	return &cfg, nil
}

func decodeArray(b []byte, v any) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ErrNotArray
	}
	if err := sonic.Unmarshal(trimmed, v); err != nil {
		return crerr.Wrap(err, "decode")
	}
	return nil
}
