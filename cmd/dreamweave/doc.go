// Command dreamweave renders binaural entrainment session manifests into
// mastered WAV programs and manages the render history.
package main
