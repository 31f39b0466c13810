// Command novachat is a small interactive example: it binds a mock weather
// tool to a Nova model and answers prompts from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Laisky/zap"
	_ "github.com/joho/godotenv/autoload"

	"github.com/fuchsia74/nova-agent/agent"
	"github.com/fuchsia74/nova-agent/common/config"
	"github.com/fuchsia74/nova-agent/common/logger"
	"github.com/fuchsia74/nova-agent/nova"
)

var systemPrompts = []string{
	"You are an AI assistant that helps users with their requests.",
	"Model Instructions:",
	"- Do not assume any information. All required parameters for actions must come from the User.",
	"- If you are going to use a tool you should always generate a Thought within <thinking></thinking> tags before you invoke a function.",
	"- You have access to a weather function that can provide current weather information.",
	"- When users ask about weather, use the get_weather function instead of suggesting websites.",
}

type weatherArgs struct {
	City string `json:"city"`
}

func getWeather(_ context.Context, raw json.RawMessage) (string, error) {
	var args weatherArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}

	city := strings.ToLower(strings.TrimSpace(args.City))
	if city != "tokyo" {
		return fmt.Sprintf("Sorry, weather data for %s is not available.", args.City), nil
	}
	return fmt.Sprintf(
		"Current weather in Tokyo:\nTemperature: 12°C\nCondition: Partly Cloudy\nHumidity: 70%%\n(Last updated: %s)",
		time.Now().Format("2006-01-02 15:04")), nil
}

func main() {
	modelID := flag.String("model", config.DefaultModel, "model alias, Bedrock model ID, or inference-profile ARN")
	region := flag.String("region", config.AWSRegion, "AWS region")
	stream := flag.Bool("stream", false, "stream the answer instead of waiting for it")
	flag.Parse()

	prompt := strings.Join(flag.Args(), " ")
	if prompt == "" {
		prompt = "What's the weather in Tokyo?"
	}

	ctx := context.Background()
	model, err := nova.New(ctx, *modelID, nova.WithRegion(*region))
	if err != nil {
		logger.Logger.Fatal("build model", zap.Error(err))
	}

	a := agent.New(model, agent.WithSystemPrompts(systemPrompts...))
	err = a.RegisterTool(agent.Tool{
		Name:        "get_weather",
		Description: "Get the weather for a city",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {"city": {"type": "string"}},
			"required": ["city"]
		}`),
		Retries: 3,
		Fn:      getWeather,
	})
	if err != nil {
		logger.Logger.Fatal("register tool", zap.Error(err))
	}

	fmt.Printf("> %s\n\n", prompt)

	if *stream {
		rs, err := a.RunStream(ctx, prompt)
		if err != nil {
			logger.Logger.Fatal("run stream", zap.Error(err))
		}
		for delta := range rs.Deltas() {
			fmt.Print(delta)
		}
		fmt.Println()
		result, err := rs.Result()
		if err != nil {
			logger.Logger.Fatal("stream failed", zap.Error(err))
		}
		printUsage(result.Usage)
		return
	}

	result, err := a.Run(ctx, prompt)
	if err != nil {
		logger.Logger.Fatal("run failed", zap.Error(err))
	}
	fmt.Println(result.Data)
	printUsage(result.Usage)
}

func printUsage(u nova.Usage) {
	fmt.Fprintf(os.Stderr, "\n[%d requests, %d prompt + %d completion = %d tokens, %s]\n",
		u.Requests, u.RequestTokens, u.ResponseTokens, u.TotalTokens, u.TotalTime.Round(time.Millisecond))
}
