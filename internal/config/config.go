package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress        string
	MongoURI           string
	GeminiAPIKey       string
	GeminiModelID      string
	GoogleSpeechAPIKey string
	ElevenLabsKey      string
	ElevenLabsVoiceID  string
	ScenariosPath      string
	ForceScenario      string
	RandomSeed         string
	SupabaseURL        string
	SupabaseKey        string
	SupabaseBucket     string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
		log.Println("Warning: MONGO_URI not set - defaulting to local instance")
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GEMINI_API")
	}
	if geminiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set - dialogue will not work")
	}
	geminiModel := os.Getenv("GEMINI_MODEL_ID")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash-lite"
	}

	speechKey := os.Getenv("GOOGLE_SPEECH_API_KEY")
	if speechKey == "" {
		log.Println("Warning: GOOGLE_SPEECH_API_KEY not set - transcription will not work")
	}

	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenKey == "" {
		log.Println("Warning: ELEVENLABS_API_KEY not set - TTS will not work")
	}
	voiceID := os.Getenv("ELEVEN_VOICE_ID")
	if voiceID == "" {
		log.Println("Warning: ELEVEN_VOICE_ID not set - TTS will not work")
	}

	scenariosPath := os.Getenv("SCENARIOS_PATH")
	if scenariosPath == "" {
		scenariosPath = "scenario/scenario.json"
	}

	log.Printf("config: HTTP_ADDRESS=%s", addr)
	return Config{
		HTTPAddress:        addr,
		MongoURI:           mongoURI,
		GeminiAPIKey:       geminiKey,
		GeminiModelID:      geminiModel,
		GoogleSpeechAPIKey: speechKey,
		ElevenLabsKey:      elevenKey,
		ElevenLabsVoiceID:  voiceID,
		ScenariosPath:      scenariosPath,
		ForceScenario:      os.Getenv("FORCE_SCENARIO"),
		RandomSeed:         os.Getenv("RANDOM_SEED"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseKey:        os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "call-audio"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
