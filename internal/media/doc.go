// Package media normalizes input recordings with ffmpeg into the mono
// 16 kHz PCM WAV form the downstream collaborators expect.
package media
