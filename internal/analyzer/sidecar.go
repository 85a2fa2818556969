package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SidecarSource reads precomputed extraction artifacts from files next to
// the video: "<video>.frames.json" for geometric and affect observations and
// "<video>.transcript.txt" for speech. It keeps the scoring pipeline fully
// deterministic when the heavy extraction models run out of process.
type SidecarSource struct{}

// NewSidecarSource creates a sidecar-file source.
func NewSidecarSource() *SidecarSource { return &SidecarSource{} }

// sidecarFrames is the on-disk layout of "<video>.frames.json".
type sidecarFrames struct {
	Gaze     []GazeFrame     `json:"gaze"`
	Pose     []PoseFrame     `json:"pose"`
	Emotions []EmotionFrame  `json:"emotions"`
	Prosody  ProsodyFeatures `json:"prosody"`
}

func (s *SidecarSource) load(videoPath string) (sidecarFrames, error) {
	var out sidecarFrames
	raw, err := os.ReadFile(videoPath + ".frames.json")
	if err != nil {
		return out, fmt.Errorf("read frames sidecar: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode frames sidecar: %w", err)
	}
	return out, nil
}

// GazeFrames implements GazeSource.
func (s *SidecarSource) GazeFrames(_ context.Context, videoPath string) ([]GazeFrame, error) {
	frames, err := s.load(videoPath)
	if err != nil {
		return nil, err
	}
	return frames.Gaze, nil
}

// PoseFrames implements PoseSource.
func (s *SidecarSource) PoseFrames(_ context.Context, videoPath string) ([]PoseFrame, error) {
	frames, err := s.load(videoPath)
	if err != nil {
		return nil, err
	}
	return frames.Pose, nil
}

// Emotions implements AffectModel.
func (s *SidecarSource) Emotions(_ context.Context, videoPath string) ([]EmotionFrame, error) {
	frames, err := s.load(videoPath)
	if err != nil {
		return nil, err
	}
	return frames.Emotions, nil
}

// Prosody implements ProsodySource.
func (s *SidecarSource) Prosody(_ context.Context, videoPath string) (ProsodyFeatures, error) {
	frames, err := s.load(videoPath)
	if err != nil {
		return ProsodyFeatures{}, err
	}
	return frames.Prosody, nil
}

// Transcribe implements Transcriber by reading "<video>.transcript.txt".
// A missing sidecar yields an empty transcript, not an error.
func (s *SidecarSource) Transcribe(_ context.Context, videoPath string) (string, error) {
	raw, err := os.ReadFile(videoPath + ".transcript.txt")
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read transcript sidecar: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
