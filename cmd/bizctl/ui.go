package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"bizsim/internal/game"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn("Value is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return defaultValue, nil
		}
		for _, opt := range options {
			if strings.EqualFold(text, opt) {
				return opt, nil
			}
		}
		printWarn("Pick one of the listed options.")
	}
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || v < min {
			printWarn(fmt.Sprintf("Enter a number >= %v.", min))
			continue
		}
		return v, nil
	}
}

func promptInt64(label string, min int64) (int64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil || v < min {
			printWarn(fmt.Sprintf("Enter a whole number >= %d.", min))
			continue
		}
		return v, nil
	}
}

func renderLobbyState(code string, state game.LobbyState) {
	accent.Printf("Lobby %s\n", code)
	round := "not started"
	if state.CurrentRound != nil {
		round = strconv.Itoa(*state.CurrentRound)
	}
	neutral.Printf("  round: %s  started: %v  roundActive: %v  roundEnded: %v\n",
		round, state.GameStarted, state.RoundStarted, state.RoundEnded)
	for _, p := range state.Players {
		neutral.Printf("  - %s\n", p.CompanyName)
	}
}

func renderLobbyInfo(code string, info game.LobbyInfo) {
	accent.Printf("Lobby %s\n", code)
	if len(info.PendingProducts) > 0 {
		warn.Println("Pending products:")
		for _, p := range info.PendingProducts {
			neutral.Printf("  - %s: %s\n", p.CompanyName, p.ProductName)
		}
	}
	accent.Println("Leaderboard:")
	for _, row := range info.Leaderboard {
		product := "-"
		if row.ProductName != nil {
			product = *row.ProductName
		}
		neutral.Printf("  %-20s revenue %12.2f  profit %12.2f  sold %8d  total profit %12.2f  product %s\n",
			row.Name, row.Revenue, row.Profit, row.UnitsSold, row.TotalProfit, product)
	}
}

func renderNews(feed game.NewsFeed) {
	accent.Printf("News (round %d)\n", feed.CurrentRound)
	if len(feed.News) == 0 {
		neutral.Println("  nothing published yet")
		return
	}
	for _, article := range feed.News {
		accent.Printf("[r%d] %s\n", article.Round, article.Title)
		neutral.Printf("  %s\n", article.Text)
	}
}

func renderReviews(company string, reviews game.CompanyReviews) {
	accent.Printf("Reviews for %s (round %d)\n", company, reviews.CurrentRound)
	if len(reviews.ReviewsByRound) == 0 {
		neutral.Println("  no reviews yet")
		return
	}
	for round := 1; round <= reviews.CurrentRound; round++ {
		entries, ok := reviews.ReviewsByRound[round]
		if !ok {
			continue
		}
		warn.Printf("Round %d:\n", round)
		for _, review := range entries {
			marker := neutral
			switch {
			case review.Sentiment > 0:
				marker = success
			case review.Sentiment < 0:
				marker = danger
			}
			marker.Printf("  (%+.1f) %s\n", review.Sentiment, review.Text)
		}
	}
}
