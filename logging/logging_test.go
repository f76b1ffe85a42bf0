package logging

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Debugw("built", "nodes", 3)
	logger.Infof("leaves: %d", 2)
	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("built").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterField(logs.All()[0].Context[0]).Len(), test.ShouldEqual, 1)

	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	logger.Info("dropped")
	logger.Warn("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 3)
	test.That(t, logs.FilterMessage("dropped").Len(), test.ShouldEqual, 0)
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("octree")

	sub.Info("hello")
	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "octree")

	sub.SetLevel(ERROR)
	sub.Warn("quiet")
	logger.Warn("loud")
	test.That(t, logs.FilterMessage("quiet").Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("loud").Len(), test.ShouldEqual, 1)
}

func TestLevelParsing(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)

	out, err := json.Marshal(ERROR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"error"`)
}
