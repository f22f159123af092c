package orderbot

import (
	"errors"
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	coredatabase "github.com/m3rciful/orderbot/core/database"
	coremongo "github.com/m3rciful/orderbot/core/mongo"
	coreredis "github.com/m3rciful/orderbot/core/redis"
	"github.com/m3rciful/orderbot/internal/orderbot/order"
)

// OrderConfig configures the order dialog.
type OrderConfig struct {
	// AdminChatID receives completed orders. Defaults to telegram.admin_id.
	AdminChatID    int64  `yaml:"admin_chat_id" envconfig:"ADMIN_ID"`
	SupportContact string `yaml:"support_contact" envconfig:"ORDER_SUPPORT_CONTACT"`
}

// Config is the full orderbot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Redis    coreredis.Config    `yaml:"redis"`
	Mongo    coremongo.Config    `yaml:"mongo"`
	Order    OrderConfig         `yaml:"order"`
}

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize applies defaults and validates the core sections plus the
// backend section of the selected storage driver.
func (c *Config) Normalize() error {
	if c == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	if c.Order.AdminChatID == 0 {
		c.Order.AdminChatID = c.Telegram.AdminID
	}
	if c.Order.AdminChatID == 0 {
		return errors.New("order.admin_chat_id (ADMIN_ID) or telegram.admin_id is required")
	}
	// a positive chat id is a private chat with that user
	if c.Telegram.AdminID == 0 && c.Order.AdminChatID > 0 {
		c.Telegram.AdminID = c.Order.AdminChatID
	}
	c.Order.SupportContact = strings.TrimSpace(c.Order.SupportContact)
	if c.Order.SupportContact == "" {
		c.Order.SupportContact = order.DefaultSupportContact
	}

	var section any
	switch c.Storage.Driver {
	case coreconfig.StoragePostgres:
		section = c.Database
	case coreconfig.StorageRedis:
		section = c.Redis
	case coreconfig.StorageMongo:
		section = c.Mongo
	}
	if section != nil {
		if err := coreconfig.Validate(section); err != nil {
			return fmt.Errorf("%s: %w", c.Storage.Driver, err)
		}
	}
	return nil
}
