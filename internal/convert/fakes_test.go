package convert

import (
	"context"
	"os"
	"sync"
)

// call records one collaborator invocation.
type call struct {
	op     string
	input  string
	output string
}

// fakeWorker implements every collaborator interface. It writes a small
// file to the output path unless err is set.
type fakeWorker struct {
	mu    sync.Mutex
	calls []call
	err   error
	panic any
	block bool
}

func (f *fakeWorker) do(ctx context.Context, op, input, output string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{op: op, input: input, output: output})
	f.mu.Unlock()

	if f.panic != nil {
		panic(f.panic)
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(output, []byte(op), 0o644)
}

func (f *fakeWorker) ConvertImage(ctx context.Context, input, output string) error {
	return f.do(ctx, "image", input, output)
}

func (f *fakeWorker) ExtractAudio(ctx context.Context, input, output string) error {
	return f.do(ctx, "audio", input, output)
}

func (f *fakeWorker) ToAnimation(ctx context.Context, input, output string) error {
	return f.do(ctx, "animation", input, output)
}

func (f *fakeWorker) ToVideo(ctx context.Context, input, output string) error {
	return f.do(ctx, "video", input, output)
}

func (f *fakeWorker) RenderPDF(ctx context.Context, input, output string) error {
	return f.do(ctx, "book", input, output)
}

func (f *fakeWorker) RemoveBackground(ctx context.Context, input, output string) error {
	return f.do(ctx, "background", input, output)
}

func (f *fakeWorker) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// recordingObserver collects observed results.
type recordingObserver struct {
	mu      sync.Mutex
	results []Result
}

func (o *recordingObserver) ObserveConversion(res Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, res)
}

// newFakeRouter wires one fake as every collaborator.
func newFakeRouter(f *fakeWorker, opts ...Option) *Router {
	base := []Option{
		WithImageConverter(f),
		WithTranscoder(f),
		WithBookRenderer(f),
		WithBackgroundRemover(f),
	}
	return New(append(base, opts...)...)
}
