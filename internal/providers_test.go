package internal

import (
	"testing"

	"github.com/dushixiang/tradejournal/internal/cache"
	"github.com/dushixiang/tradejournal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProviders(t *testing.T) {
	conf := &config.Config{}
	conf.Normalize()
	logger := zap.NewNop()

	_, err := provideBroker(conf, logger)
	assert.Error(t, err)
	conf.MT.BaseURL = "http://localhost:8080"
	broker, err := provideBroker(conf, logger)
	require.NoError(t, err)
	assert.NotNil(t, broker)

	_, err = provideSecretBox(conf)
	assert.Error(t, err)
	conf.Security.EncryptionKey = "key"
	_, err = provideSecretBox(conf)
	assert.NoError(t, err)

	_, ok := provideCacheStore(conf, logger).(*cache.MemoryStore)
	assert.True(t, ok)

	conf.Sync.Timezone = "Not/AZone"
	_, err = provideLocation(conf)
	assert.Error(t, err)

	assert.Nil(t, provideTelegram(logger, conf))
}

func TestProvideAuthServiceWarnsOnce(t *testing.T) {
	conf := &config.Config{}
	conf.Normalize()
	core, logs := observer.New(zapcore.WarnLevel)

	assert.NotNil(t, provideAuthService(zap.New(core), nil, conf))
	assert.Equal(t, 1, logs.FilterMessageSnippet("jwt secret").Len())

	conf.Security.JWTSecret = "secret"
	provideAuthService(zap.New(core), nil, conf)
	assert.Equal(t, 1, logs.Len())
}
