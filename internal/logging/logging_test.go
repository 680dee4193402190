package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, Level(-1))
	assert.Equal(t, zerolog.WarnLevel, Level(0))
	assert.Equal(t, zerolog.InfoLevel, Level(1))
	assert.Equal(t, zerolog.DebugLevel, Level(2))
	assert.Equal(t, zerolog.TraceLevel, Level(5))
}

func TestGetTagsComponent(t *testing.T) {
	saved, savedLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(savedLevel)
	})

	var buf bytes.Buffer
	SetupWriter(&buf, 1, true)
	logger := Get("fetch")
	logger.Info().Msg("downloading")
	logger.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, "downloading")
	assert.Contains(t, out, "component=fetch")
	assert.NotContains(t, out, "hidden")
}
