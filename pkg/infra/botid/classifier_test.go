package botid_test

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/astralhq/chatgate/pkg/infra/botid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func newClassifier() botid.Classifier {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return botid.NewClassifier(logger, 0.6)
}

func compress(t *testing.T, payload map[string]interface{}) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestClassify_Browser(t *testing.T) {
	verdict := newClassifier().Classify(context.Background(), browserUA, "")
	assert.False(t, verdict.IsBot)
}

func TestClassify_VerifiedCrawler(t *testing.T) {
	ua := "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	verdict := newClassifier().Classify(context.Background(), ua, "")
	assert.True(t, verdict.IsBot)
	assert.True(t, verdict.IsVerifiedBot)
}

func TestClassify_CurlIsUnverifiedBot(t *testing.T) {
	verdict := newClassifier().Classify(context.Background(), "curl/8.4.0", "")
	assert.True(t, verdict.IsBot)
	assert.False(t, verdict.IsVerifiedBot)
}

func TestClassify_EmptyUAIsUnverifiedBot(t *testing.T) {
	verdict := newClassifier().Classify(context.Background(), "", "")
	assert.True(t, verdict.IsBot)
	assert.False(t, verdict.IsVerifiedBot)
}

func TestClassify_HeadlessClientData(t *testing.T) {
	data := compress(t, map[string]interface{}{
		"automationDetection": map[string]interface{}{
			"webdriver":      true,
			"chromeHeadless": true,
		},
	})

	verdict := newClassifier().Classify(context.Background(), browserUA, data)
	assert.True(t, verdict.IsBot)
	assert.False(t, verdict.IsVerifiedBot)
}

func TestClassify_CleanClientData(t *testing.T) {
	data := compress(t, map[string]interface{}{
		"automationDetection": map[string]interface{}{
			"webdriver":      false,
			"chromeHeadless": false,
		},
		"persistenceChecker": map[string]interface{}{
			"cookiesEnabled": true,
			"localStorage":   true,
		},
		"environment": map[string]interface{}{
			"languages": []interface{}{"en-US"},
		},
	})

	verdict := newClassifier().Classify(context.Background(), browserUA, data)
	assert.False(t, verdict.IsBot)
}

func TestClassify_MalformedClientData(t *testing.T) {
	verdict := newClassifier().Classify(context.Background(), browserUA, "%%%not-base64%%%")
	assert.True(t, verdict.IsBot)
}
