// Package speech turns narration text into WAV clips.
//
// Two interchangeable backends implement Synthesizer: a Coqui TTS server
// reached over HTTP and the Piper executable run as a subprocess. Both
// measure their own processing latency and read the produced WAV header for
// the clip duration. Adapter ties a backend to the run workspace, stamping
// each clip's start time before synthesis begins and naming the file after it.
package speech
