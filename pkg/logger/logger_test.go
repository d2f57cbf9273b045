package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		var buf bytes.Buffer
		SetOutput(&buf)
		defer SetOutput(nil)
		So(SetFormat("text"), ShouldBeNil)
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("When logging an info message with fields", func() {
			Get().Info(context.Background(), "scored outfit",
				String("outfit_id", "o-1"),
				Float64("score", 0.82),
				Int("items", 3),
				Bool("cached", false),
				Duration("took", time.Millisecond),
				Error(errors.New("boom")),
			)

			Convey("Then the output carries the message, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "scored outfit")
				So(out, ShouldContainSubstring, "outfit_id=o-1")
				So(out, ShouldContainSubstring, "score=0.82")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Info(context.Background(), "hidden")
			Get().Warn(context.Background(), "visible")

			Convey("Then only the warning is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When using a named logger", func() {
			Named("worker").Info(context.Background(), "started", Int("id", 7))

			Convey("Then attributes are grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, "worker.id=7")
			})
		})
	})
}

func TestLoggerJSONFormat(t *testing.T) {
	Convey("Given a json formatted logger", t, func() {
		var buf bytes.Buffer
		SetOutput(&buf)
		So(SetFormat("json"), ShouldBeNil)
		So(Init(), ShouldBeNil)
		defer func() {
			SetOutput(nil)
			_ = SetFormat("text")
			_ = Init()
		}()

		Get().Error(context.Background(), "source unavailable", String("user_id", "u1"))

		So(strings.HasPrefix(buf.String(), "{"), ShouldBeTrue)
		So(buf.String(), ShouldContainSubstring, `"user_id":"u1"`)
	})
}

func TestLoggerLevelParsing(t *testing.T) {
	Convey("Given level and format strings", t, func() {
		So(SetLevelString("DEBUG"), ShouldBeNil)
		So(SetLevelString("warning"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetFormat("xml"), ShouldNotBeNil)
	})
}
