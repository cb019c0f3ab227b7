// Package transcoder converts video, animation and audio files using FFmpeg.
//
// It supports:
//   - Audio extraction (MP3, WAV) from video and audio sources
//   - Animated GIF rendering at a fixed width and frame rate
//   - H.264/AAC MP4 encoding with player-safe pixel format and dimensions
//   - Stream metadata extraction through FFprobe
//
// FFmpeg and FFprobe are located on the PATH unless explicit paths are
// configured. When FFmpeg is missing every operation fails with an error
// wrapping catalog.ErrFeatureUnavailable.
package transcoder
