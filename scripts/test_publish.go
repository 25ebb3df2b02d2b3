//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type PlaceChangedEvent struct {
	CategoryID string  `json:"category_id"`
	ZoneID     *string `json:"zone_id,omitempty"`
	PlaceID    *string `json:"place_id,omitempty"`
	Action     string  `json:"action"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	category := flag.String("category", "hotels", "Category ID")
	zone := flag.String("zone", "", "Zone ID (empty for whole category)")
	action := flag.String("action", "updated", "created | updated | deleted | zone_changed")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := PlaceChangedEvent{
		CategoryID: *category,
		Action:     *action,
	}
	if *zone != "" {
		event.ZoneID = zone
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// последний ID до публикации, чтобы читать только новые ответы
	lastID := "$"
	if msgs, err := client.XRevRangeN(ctx, "stream:places:invalidated", "+", "-", 1).Result(); err == nil && len(msgs) > 0 {
		lastID = msgs[0].ID
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:places:changed",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: stream:places:changed\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Payload: %s\n", data)

	fmt.Printf("\nWaiting for stream:places:invalidated...\n")

	if lastID == "$" {
		lastID = "0"
	}
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		results, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{"stream:places:invalidated", lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			log.Fatalf("Failed to read stream: %v", err)
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				dataStr, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}
				var got PlaceChangedEvent
				if err := json.Unmarshal([]byte(dataStr), &got); err != nil {
					continue
				}
				if got.CategoryID == event.CategoryID {
					fmt.Printf("\nCache invalidated: %s\n", dataStr)
					return
				}
			}
		}
	}
	fmt.Println("Timeout waiting for invalidation")
}
