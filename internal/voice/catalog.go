package voice

// DefaultVoiceID is Lily.
const DefaultVoiceID = "pFZP5JQG7iQjIQuC4Bku"

// Voice is a selectable narrator.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Accent      string `json:"accent"`
	Gender      string `json:"gender"`
	Personality string `json:"personality"`
}

var voices = []Voice{
	{ID: "pFZP5JQG7iQjIQuC4Bku", Name: "Lily", Description: "Velvety British female voice with warmth and clarity", Accent: "British", Gender: "female", Personality: "Warm & Professional"},
	{ID: "IKne3meq5aSn9XLyUdCD", Name: "Charlie", Description: "Young Australian male with confident and energetic voice", Accent: "Australian", Gender: "male", Personality: "Energetic & Confident"},
	{ID: "cgSgspJ2msm6clMCkdW9", Name: "Jessica", Description: "Young and playful American female, perfect for trendy content", Accent: "American", Gender: "female", Personality: "Playful & Young"},
	{ID: "TX3LPaxmHKxFdv7VOQHJ", Name: "Liam", Description: "Young adult with energy and warmth, suitable for social media", Accent: "American", Gender: "male", Personality: "Energetic & Warm"},
	{ID: "bIHbv24MWmeRgasZH58o", Name: "Will", Description: "Conversational and laid back", Accent: "American", Gender: "male", Personality: "Chill & Conversational"},
	{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Description: "Young woman with confident, warm, and professional tone", Accent: "American", Gender: "female", Personality: "Professional & Confident"},
	{ID: "SAz9YHcvj6GT2YYXdXww", Name: "River", Description: "Relaxed, neutral voice ready for narrations", Accent: "American", Gender: "neutral", Personality: "Calm & Neutral"},
	{ID: "iP95p4xoKVk53GoZ742B", Name: "Chris", Description: "Natural and down-to-earth voice", Accent: "American", Gender: "male", Personality: "Natural & Friendly"},
}

// Voices returns the catalog in display order.
func Voices() []Voice {
	return append([]Voice(nil), voices...)
}

// Lookup finds a voice by id.
func Lookup(id string) (Voice, bool) {
	for _, v := range voices {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}
