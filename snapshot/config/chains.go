package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/screwyprof/stakesnap/snapshot"
)

var (
	ErrNoChains         = errors.New("no chains configured")
	ErrDuplicateChain   = errors.New("duplicate chain name")
	ErrInvalidThreshold = errors.New("invalid stake threshold")
)

type chainsFile struct {
	Chains []chainEntry `yaml:"chains" validate:"dive"`
}

type chainEntry struct {
	Name           string `yaml:"name" validate:"required"`
	APIURL         string `yaml:"api_url" validate:"required,url"`
	Prefix         string `yaml:"prefix" validate:"required"`
	StakeThreshold string `yaml:"stake_threshold" validate:"required"`
	PageSize       uint64 `yaml:"page_size"`
}

// LoadChains reads chain definitions from a YAML file. Chains without page_size use defaultPageSize.
func LoadChains(path string, defaultPageSize uint64) ([]snapshot.ChainConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chains file: %w", err)
	}
	defer f.Close()

	chains, err := ParseChains(f, defaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return chains, nil
}

// ParseChains decodes chain definitions, keeping their order.
//
// Example:
//
//	chains:
//	  - name: cosmos
//	    api_url: https://rest.cosmos.directory/cosmoshub
//	    prefix: cosmos
//	    stake_threshold: 15000000
func ParseChains(r io.Reader, defaultPageSize uint64) ([]snapshot.ChainConfig, error) {
	var file chainsFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding chains: %w", err)
	}
	if len(file.Chains) == 0 {
		return nil, ErrNoChains
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid chains: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Chains))
	chains := make([]snapshot.ChainConfig, 0, len(file.Chains))
	for _, c := range file.Chains {
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChain, c.Name)
		}
		seen[c.Name] = struct{}{}

		threshold, err := decimal.NewFromString(c.StakeThreshold)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrInvalidThreshold, c.Name, err)
		}
		if threshold.IsNegative() {
			return nil, fmt.Errorf("%w for %s: negative", ErrInvalidThreshold, c.Name)
		}

		pageSize := c.PageSize
		if pageSize == 0 {
			pageSize = defaultPageSize
		}

		chains = append(chains, snapshot.ChainConfig{
			Name:      c.Name,
			APIURL:    c.APIURL,
			Prefix:    c.Prefix,
			Threshold: threshold,
			PageSize:  pageSize,
		})
	}
	return chains, nil
}
