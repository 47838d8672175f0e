//go:build ignore

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dealhound/coupon-backend/config"
	"github.com/dealhound/coupon-backend/database"
	"github.com/dealhound/coupon-backend/providers"
	"github.com/dealhound/coupon-backend/services"
)

func main() {
	fmt.Printf("🏥 Coupon Backend Health Check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println(strings.Repeat("=", 50))

	healthScore := 0
	totalTests := 4

	cfg := config.LoadConfig()
	ctx := context.Background()

	// Test 1: Provider configuration
	fmt.Print("🔎 Search Provider: ")
	if name, err := providers.ParseName(cfg.SearchProvider); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Printf("✅ OK (%s)\n", name)
		healthScore++
	}

	// Test 2: Database
	fmt.Print("🗄️  Database: ")
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
		printSummary(healthScore, totalTests)
		return
	}
	fmt.Println("✅ OK")
	healthScore++
	defer database.Close()

	// Test 3: Schema
	fmt.Print("📋 Schema: ")
	if err := database.ValidateSchema(); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Println("✅ OK")
		healthScore++
	}

	// Test 4: Cache reads
	fmt.Print("🎟️  Coupon Cache: ")
	cacheService := services.NewCouponCacheService(database.DB)
	if coupons, err := cacheService.ReadFresh(ctx, "example.com"); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Printf("✅ OK (%d fresh coupons for example.com)\n", len(coupons))
		healthScore++
	}

	printSummary(healthScore, totalTests)
}

func printSummary(healthScore, totalTests int) {
	fmt.Println(strings.Repeat("-", 50))
	healthPercent := float64(healthScore) / float64(totalTests) * 100

	if healthScore == totalTests {
		fmt.Printf("🎉 SYSTEM HEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else if healthScore >= totalTests/2 {
		fmt.Printf("⚠️  SYSTEM DEGRADED: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else {
		fmt.Printf("❌ SYSTEM UNHEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	}

	fmt.Printf("⏰ Check completed at: %s\n", time.Now().Format("15:04:05"))
}
