package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"metamorphosis/internal/catalog"
	"metamorphosis/internal/logging"

	"github.com/tidwall/gjson"
)

const (
	// AnimationWidth is the output width of rendered GIFs.
	AnimationWidth = 480
	// AnimationFPS is the frame rate of rendered GIFs.
	AnimationFPS = 15

	// waitDelay bounds how long a killed ffmpeg may hold its pipes open.
	waitDelay = 5 * time.Second
)

// Transcoder runs FFmpeg conversions and tracks the running processes.
type Transcoder struct {
	ffmpeg    string
	ffprobe   string
	processes map[string]*exec.Cmd
	processMu sync.Mutex
}

// MediaInfo describes the streams of a media file.
type MediaInfo struct {
	Duration   float64 `json:"duration"`
	Format     string  `json:"format"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	VideoCodec string  `json:"videoCodec,omitempty"`
	AudioCodec string  `json:"audioCodec,omitempty"`
}

// HasVideo reports whether the file carries a video stream.
func (m *MediaInfo) HasVideo() bool {
	return m.VideoCodec != ""
}

// HasAudio reports whether the file carries an audio stream.
func (m *MediaInfo) HasAudio() bool {
	return m.AudioCodec != ""
}

// audioCodecs maps audio targets to their FFmpeg encoder.
var audioCodecs = map[string]string{
	".mp3": "libmp3lame",
	".wav": "pcm_s16le",
}

// New creates a Transcoder. Empty paths fall back to the binaries on PATH.
func New(ffmpegPath, ffprobePath string) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Transcoder{
		ffmpeg:    ffmpegPath,
		ffprobe:   ffprobePath,
		processes: make(map[string]*exec.Cmd),
	}
}

// Available reports whether the FFmpeg binary can be found.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.ffmpeg)
	return err == nil
}

// ProbeAvailable reports whether the FFprobe binary can be found.
func (t *Transcoder) ProbeAvailable() bool {
	_, err := exec.LookPath(t.ffprobe)
	return err == nil
}

// Probe retrieves duration, codec and dimension information about a file.
func (t *Transcoder) Probe(ctx context.Context, filePath string) (*MediaInfo, error) {
	if !t.ProbeAvailable() {
		return nil, fmt.Errorf("%w: ffprobe not found", catalog.ErrFeatureUnavailable)
	}

	cmd := exec.CommandContext(ctx, t.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseProbe(stdout.Bytes())
}

// parseProbe reads ffprobe's JSON report.
func parseProbe(data []byte) (*MediaInfo, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("ffprobe returned invalid JSON")
	}
	doc := gjson.ParseBytes(data)

	info := &MediaInfo{
		Duration: doc.Get("format.duration").Float(),
		Format:   doc.Get("format.format_name").String(),
	}

	if video := doc.Get(`streams.#(codec_type=="video")`); video.Exists() {
		info.VideoCodec = video.Get("codec_name").String()
		info.Width = int(video.Get("width").Int())
		info.Height = int(video.Get("height").Int())
	}
	if audio := doc.Get(`streams.#(codec_type=="audio")`); audio.Exists() {
		info.AudioCodec = audio.Get("codec_name").String()
	}

	return info, nil
}

// ExtractAudio writes the audio track of input to output, dropping video.
// The encoder is chosen by the output extension.
func (t *Transcoder) ExtractAudio(ctx context.Context, input, output string) error {
	if t.ProbeAvailable() {
		info, err := t.Probe(ctx, input)
		if err != nil {
			return err
		}
		if !info.HasAudio() {
			return fmt.Errorf("%s has no audio stream", filepath.Base(input))
		}
	}
	return t.run(ctx, input, output, AudioArgs(output))
}

// ToAnimation renders input as an animated GIF.
func (t *Transcoder) ToAnimation(ctx context.Context, input, output string) error {
	return t.run(ctx, input, output, AnimationArgs())
}

// ToVideo encodes input as H.264/AAC.
func (t *Transcoder) ToVideo(ctx context.Context, input, output string) error {
	return t.run(ctx, input, output, VideoArgs())
}

// AudioArgs returns the output options for an audio-only target.
func AudioArgs(output string) []string {
	ext := strings.ToLower(filepath.Ext(output))
	args := []string{"-vn"}
	if codec, ok := audioCodecs[ext]; ok {
		args = append(args, "-c:a", codec)
	}
	if ext == ".mp3" {
		args = append(args, "-q:a", "2")
	}
	return args
}

// AnimationArgs returns the output options for GIF rendering.
func AnimationArgs() []string {
	return []string{
		"-an",
		"-vf", fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos", AnimationFPS, AnimationWidth),
		"-loop", "0",
	}
}

// VideoArgs returns the output options for MP4 encoding. Odd dimensions
// are truncated to even ones as yuv420p requires.
func VideoArgs() []string {
	return []string{
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
	}
}

// createPartial reserves a unique hidden file beside output for FFmpeg to
// write into, so concurrent runs for one output never share it. The
// extension is kept so FFmpeg can pick the muxer.
func createPartial(output string) (string, error) {
	base := filepath.Base(output)
	ext := filepath.Ext(base)
	f, err := os.CreateTemp(filepath.Dir(output), "."+strings.TrimSuffix(base, ext)+".partial-*"+ext)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		removePartial(name)
		return "", err
	}
	return name, nil
}

// run executes ffmpeg for one conversion. Output lands in a partial file
// that is renamed over output on success and removed otherwise.
func (t *Transcoder) run(ctx context.Context, input, output string, outputArgs []string) error {
	if !t.Available() {
		return fmt.Errorf("%w: ffmpeg not found", catalog.ErrFeatureUnavailable)
	}

	partial, err := createPartial(output)
	if err != nil {
		return fmt.Errorf("failed to create partial output: %w", err)
	}

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y", "-i", input}
	args = append(args, outputArgs...)
	args = append(args, partial)

	cmd := exec.CommandContext(ctx, t.ffmpeg, args...)
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("ffmpeg %s", strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		removePartial(partial)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	// Track the process once Start has set cmd.Process
	t.processMu.Lock()
	t.processes[partial] = cmd
	t.processMu.Unlock()

	err = cmd.Wait()

	t.processMu.Lock()
	delete(t.processes, partial)
	t.processMu.Unlock()

	if err != nil {
		removePartial(partial)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := lastLine(stderr.String())
		logging.Error("FFmpeg stderr: %s", stderr.String())
		if msg == "" {
			return fmt.Errorf("ffmpeg failed: %w", err)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, msg)
	}

	if err := os.Rename(partial, output); err != nil {
		removePartial(partial)
		return fmt.Errorf("failed to move ffmpeg output into place: %w", err)
	}
	return nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove partial output %s: %v", path, err)
	}
}

// lastLine returns the last non-empty line of FFmpeg's error output.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// Active returns the number of running FFmpeg processes.
func (t *Transcoder) Active() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// Cleanup stops all active transcoding processes. Only started processes
// are tracked, so cmd.Process is always set here.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for partial, cmd := range t.processes {
		logging.Info("Killing transcoding process writing: %s", partial)
		if err := cmd.Process.Kill(); err != nil {
			logging.Warn("failed to kill transcoding process writing %s: %v", partial, err)
		}
	}
}
