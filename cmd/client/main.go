// cmd/client/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"

	schedulerv1 "github.com/gurkanbulca/clarity/api/scheduler/v1"
	"github.com/gurkanbulca/clarity/internal/config"
	"github.com/gurkanbulca/clarity/pkg/auth"
)

func main() {
	log := logrus.New()
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	}

	addr := flag.String("addr", "localhost:50051", "gRPC server address")
	user := flag.String("user", os.Getenv("CLARITY_USER_ID"), "owner UUID; a random one when empty")
	flag.Parse()

	command := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if command == "" {
		fmt.Fprintln(os.Stderr, `usage: client [-addr host:port] [-user uuid] "gym tomorrow at 7am for an hour"`)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ownerID := uuid.New()
	if *user != "" {
		if ownerID, err = uuid.Parse(*user); err != nil {
			log.Fatalf("Invalid -user: %v", err)
		}
	}

	// Development only: signs with the server's secret.
	tokens := auth.NewTokenManager(cfg.JWT.AccessSecret, cfg.JWT.AccessTokenDuration, cfg.JWT.Issuer)
	token, _, err := tokens.GenerateAccessToken(ownerID)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

	now := time.Now()
	req, err := schedulerv1.Encode(schedulerv1.CommandRequest{Command: command, LocalTime: &now})
	if err != nil {
		log.Fatalf("Failed to encode request: %v", err)
	}

	client := schedulerv1.NewSchedulerServiceClient(conn)
	resp, err := client.ProcessCommand(ctx, req)
	if err != nil {
		log.Fatalf("ProcessCommand failed: %v", err)
	}

	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		log.Fatalf("Failed to format response: %v", err)
	}
	fmt.Printf("user %s\n%s\n", ownerID, out)
}
