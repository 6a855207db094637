package classify

// systemPrompt carries the classification rules. The user prompt supplies
// the episode evidence.
const systemPrompt = `You are analyzing podcast episode transcriptions to identify whether an episode is part of a series or is an independent episode.

Look for explicit indicators:
- "Part [number]" or "Episode [number]" in titles or content
- References to previous episodes in the same series
- Sequential topics or continuing themes
- Explicit series names mentioned

Rules:
- Only conclude an episode is part of a series if the transcription makes it EXPLICITLY clear.
- Use "INDEPENDENT" as series_name if there is any doubt or if it is clearly a standalone episode.
- Be conservative: err on the side of INDEPENDENT rather than forcing episodes into series.
- Series names should be descriptive and based on content mentioned in the transcription.
- Reuse the exact name of an existing series when the episode continues it.
- Episode numbers are sequential within each series starting from 1. A new series starts at 1.
- For INDEPENDENT episodes use episode_number_in_series 0.

Respond ONLY with a JSON object like: {"series_name": "INDEPENDENT", "episode_number_in_series": 0}`

const noPreviousTranscript = "No previous episode transcription available"

const noSeriesData = "No existing series data"
