package logger

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	return ansiRegex.ReplaceAllString(str, "")
}

// The console encoder must never silently drop a field.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	encoder := newMinimalEncoder()
	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Now(),
		LoggerName: "test",
		Message:    "Testing field preservation",
	}

	testFields := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String("random_field_xyz", "important_data"), "random_field_xyz=important_data"},
		{zap.Int("critical_count", 999), "critical_count=999"},
		{zap.Bool("deprecated", true), "deprecated=true"},
		{zap.Float64("opacity", 0.8), "opacity=0.8"},
		{zap.Float32("float32_field", 3.5), "float32_field=3.5"},
		{zap.Strings("files", []string{"a.d.ts", "b.d.ts"}), "files="},
		{zap.Error(nil), ""},
		{zap.String(FieldTask, "jsApiCheck"), "jsApiCheck"},
		{zap.Int64(FieldDurationMS, 12), "12ms"},
		{zap.String(FieldTarget, "js"), "js"},
	}

	var allFields []zapcore.Field
	for _, tf := range testFields {
		allFields = append(allFields, tf.field)
	}

	buf, err := encoder.EncodeEntry(entry, allFields)
	require.NoError(t, err)
	output := stripANSI(buf.String())

	for _, tf := range testFields {
		if tf.mustFind == "" {
			continue
		}
		assert.Contains(t, output, tf.mustFind, "field %s was dropped", tf.field.Key)
	}
}

func TestMinimalEncoderLevels(t *testing.T) {
	encoder := newMinimalEncoder()

	tests := []struct {
		level zapcore.Level
		want  string
	}{
		{zapcore.WarnLevel, "WARN"},
		{zapcore.ErrorLevel, "ERROR"},
		{zapcore.DebugLevel, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			buf, err := encoder.EncodeEntry(zapcore.Entry{Level: tt.level, Time: time.Now(), Message: "m"}, nil)
			require.NoError(t, err)
			assert.Contains(t, stripANSI(buf.String()), tt.want)
		})
	}

	buf, err := encoder.EncodeEntry(zapcore.Entry{Level: zapcore.InfoLevel, Time: time.Now(), Message: "quiet"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, stripANSI(buf.String()), "INFO")
	assert.Contains(t, stripANSI(buf.String()), "quiet\n")
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "wiring", abbreviateName("wiring"))
	assert.Equal(t, "w.shim", abbreviateName("wiring.shim"))
	assert.Equal(t, "h.exec.task", abbreviateName("host.exec.task"))
}
