package reporter_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/makit/internal/adapters/reporter"
	"go.trai.ch/makit/internal/core/domain"
)

func events() []domain.Event {
	return []domain.Event{
		{Kind: domain.EventPreparing, Target: "dist/app.js"},
		{Kind: domain.EventPreparing, Target: "src/app.js", Parent: "dist/app.js"},
		{Kind: domain.EventSkipped, Target: "src/app.js", Parent: "dist/app.js"},
		{Kind: domain.EventMade, Target: "dist/app.js", Dependencies: []string{"src/app.js", "src/util.js"}},
	}
}

func TestVerbose(t *testing.T) {
	tests := []struct {
		name          string
		showPreparing bool
		goldenName    string
	}{
		{name: "default", goldenName: "verbose"},
		{name: "preparing", showPreparing: true, goldenName: "verbose_preparing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			r := reporter.NewVerbose(buf, tt.showPreparing)
			for _, ev := range events() {
				r.Report(ev)
			}
			r.Finish(nil)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestDot(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	t.Run("success", func(t *testing.T) {
		buf := &bytes.Buffer{}
		r := reporter.NewDot(buf)
		for _, ev := range events() {
			r.Report(ev)
		}
		r.Finish(nil)
		assert.Equal(t, "..\n", buf.String())
	})

	t.Run("failure", func(t *testing.T) {
		buf := &bytes.Buffer{}
		r := reporter.NewDot(buf)
		r.Report(domain.Event{Kind: domain.EventSkipped, Target: "a"})
		r.Finish(errors.New("boom"))
		assert.Equal(t, ".✗\n", buf.String())
	})

	t.Run("nothing reported", func(t *testing.T) {
		buf := &bytes.Buffer{}
		r := reporter.NewDot(buf)
		r.Finish(nil)
		assert.Empty(t, buf.String())
	})

	t.Run("concurrent reports", func(t *testing.T) {
		buf := &bytes.Buffer{}
		r := reporter.NewDot(buf)
		var wg sync.WaitGroup
		for range 50 {
			wg.Go(func() {
				r.Report(domain.Event{Kind: domain.EventMade, Target: "x"})
			})
		}
		wg.Wait()
		r.Finish(nil)
		assert.Len(t, buf.String(), 51)
	})
}

func TestNew(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}

	r, err := reporter.New(reporter.KindAuto, buf, false)
	require.NoError(t, err)
	assert.IsType(t, &reporter.Verbose{}, r, "a buffer is not a terminal")

	r, err = reporter.New(reporter.KindDot, buf, false)
	require.NoError(t, err)
	assert.IsType(t, &reporter.Dot{}, r)

	r, err = reporter.New(reporter.KindVerbose, buf, true)
	require.NoError(t, err)
	assert.IsType(t, &reporter.Verbose{}, r)

	_, err = reporter.New("fancy", buf, false)
	require.Error(t, err)
	assert.ErrorContains(t, err, reporter.ErrUnknownKind.Error())
}
