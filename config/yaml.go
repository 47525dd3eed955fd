package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

func parseYaml(out interface{}, blob []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(blob))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("can't parse yaml: %w", err)
	}
	return nil
}

type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("can't parse duration %q: %w", node.Value, err)
	}
	*d = duration(v)
	return nil
}

type address common.Address

func (a *address) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "" {
		*a = address{}
		return nil
	}
	if !common.IsHexAddress(node.Value) {
		return fmt.Errorf("can't parse address %q", node.Value)
	}
	*a = address(common.HexToAddress(node.Value))
	return nil
}

type level logrus.Level

func (l *level) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "" {
		*l = level(logrus.InfoLevel)
		return nil
	}
	parsed, err := logrus.ParseLevel(node.Value)
	if err != nil {
		return fmt.Errorf("can't parse log level %q: %w", node.Value, err)
	}
	*l = level(parsed)
	return nil
}
