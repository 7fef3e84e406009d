package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Payment  PaymentConfig
	Pricing  PricingConfig
	AMQP     AMQPConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// ChannelConfig holds the credentials for one external payment channel.
// Each channel gets its own instance injected at wiring time.
type ChannelConfig struct {
	BaseURL       string
	APIKey        string
	APISecret     string
	WebhookSecret string
	CallbackURL   string
	Timeout       time.Duration
}

type PaymentConfig struct {
	Currency string
	Card     ChannelConfig
	MTN      ChannelConfig
	Orange   ChannelConfig
}

type PricingConfig struct {
	// FallbackPrice is charged when a field/slot resolves to no usable
	// base price. Bookings are not rejected on bad pricing data.
	FallbackPrice float64
	EquipmentFee  float64
}

type AMQPConfig struct {
	URL      string
	Exchange string
	Enabled  bool
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("PAYMENT_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PAYMENT_CURRENCY", "XAF")
	viper.SetDefault("PRICING_FALLBACK_PRICE", 5000)
	viper.SetDefault("PRICING_EQUIPMENT_FEE", 1000)
	viper.SetDefault("AMQP_EXCHANGE", "field-booking")
	viper.SetDefault("AMQP_ENABLED", false)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	timeout := time.Duration(viper.GetInt("PAYMENT_TIMEOUT_SECONDS")) * time.Second

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Payment: PaymentConfig{
			Currency: viper.GetString("PAYMENT_CURRENCY"),
			Card: ChannelConfig{
				BaseURL:       viper.GetString("CARD_BASE_URL"),
				APIKey:        viper.GetString("CARD_API_KEY"),
				APISecret:     viper.GetString("CARD_API_SECRET"),
				WebhookSecret: viper.GetString("CARD_WEBHOOK_SECRET"),
				CallbackURL:   viper.GetString("CARD_CALLBACK_URL"),
				Timeout:       timeout,
			},
			MTN: ChannelConfig{
				BaseURL:       viper.GetString("MTN_BASE_URL"),
				APIKey:        viper.GetString("MTN_API_KEY"),
				APISecret:     viper.GetString("MTN_API_SECRET"),
				WebhookSecret: viper.GetString("MTN_WEBHOOK_SECRET"),
				Timeout:       timeout,
			},
			Orange: ChannelConfig{
				BaseURL:       viper.GetString("ORANGE_BASE_URL"),
				APIKey:        viper.GetString("ORANGE_API_KEY"),
				APISecret:     viper.GetString("ORANGE_API_SECRET"),
				WebhookSecret: viper.GetString("ORANGE_WEBHOOK_SECRET"),
				Timeout:       timeout,
			},
		},
		Pricing: PricingConfig{
			FallbackPrice: viper.GetFloat64("PRICING_FALLBACK_PRICE"),
			EquipmentFee:  viper.GetFloat64("PRICING_EQUIPMENT_FEE"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
			Enabled:  viper.GetBool("AMQP_ENABLED"),
		},
	}

	return config, nil
}
