package estimator

import (
	"fmt"
	"strings"

	"bizsim/internal/marketstats"
)

func demandPrompt(mc MarketContext, stats *marketstats.Stats) string {
	var b strings.Builder

	b.WriteString(`You are an economic simulation AI for a business strategy game.

GAME GOAL CONTEXT (VERY IMPORTANT):
- The core challenge of this game is to sell an UNNECESSARY or LOW-NEED product through smart, creative, or manipulative marketing.
- Products do NOT need to be useful to succeed.
- Strong marketing can create demand even for pointless, novelty, or impulse products.
- Weak marketing reduces demand but should rarely eliminate it completely.

You MUST use ONLY the reference data provided below.
You MUST NOT invent external statistics.

CONSUMER BEHAVIOR REFERENCE TABLE (likelihood modifiers, not guarantees):
`)
	b.WriteString(stats.Table())

	fmt.Fprintf(&b, `

PRODUCT, PRODUCTION & MARKET CONTEXT:
Product name: %s
Product description: %s
Placement: %s

Unit price: %.2f
Units available this round: %d
Units sold last round: %d

Market situation:
- Availability: %s
- Sustainability claim level: %s
- Production cost region: %s
- Marketing pressure intensity (log-scaled): %.2f

Marketing campaign description (sanitized):
%s
`, mc.ProductName, mc.ProductDescription, mc.Placement,
		mc.PricePerUnit, mc.UnitsAvailable, mc.UnitsSoldLastRound,
		mc.ScarcityLevel, mc.SustainabilityClaim, mc.RegionCostLevel,
		mc.MarketingPressure, mc.MarketingStrategy)

	b.WriteString(`
MARKETING LEGALITY (MANDATORY):
- ILLEGAL: false factual claims about the product itself. Penalize demand AND trust heavily.
- LEGAL: emotional manipulation, framing, exaggeration, urgency, exclusivity, identity signaling. Allowed and encouraged.
Do NOT reject marketing for being manipulative; ONLY penalize clearly false factual claims.

COHERENCE CHECK (DO NOT SKIP):
Internally score the campaign from -3 (incoherent failure) to +5 (exceptional manipulation).
This score MUST dominate demand more than budget, price, or product logic.
If product name, description, and marketing are all meaningless AND visibility is low, the product is non-marketable and absoluteDemand MAY be 0.
If visibility is medium or high, confusion creates curiosity: absoluteDemand MUST be greater than 0, low to moderate, with skepticism surfacing in reviews instead of total rejection.

DEMAND RULES:
- absoluteDemand represents people who ACTUALLY decide to buy.
- High budget with a negative campaign score MUST still perform badly; low budget with a high score MAY succeed.
- Use uneven, organic values (e.g. 22543 instead of 22000).

FEEDBACK RULES:
- summary: one aggregated prose section focused on the MARKETING, which regions and age groups responded, and why.
- reviews: between 8 and 15 fictional market reactions to the marketing (not the product), mixed lengths, mixed sentiment. The same campaign MUST produce both manipulated and resistant reactions.

Respond ONLY in valid JSON:
{
  "absoluteDemand": number,
  "satisfactionDelta": number,
  "sustainabilityScore": number,
  "summary": string,
  "reviews": [
    {
      "sentiment": number,
      "text": string
    }
  ]
}
`)
	return b.String()
}

func newsPrompt(rc RoundContext) string {
	var lines strings.Builder
	for _, p := range rc.Players {
		fmt.Fprintf(&lines, "- %s: units sold %d, profit %.2f\n", p.Name, p.UnitsSold, p.Profit)
	}

	return fmt.Sprintf(`You are an investigative business journalist inside a satirical European economic simulation.

ROUND CONTEXT:
Round: %d

Players:
%s
Top seller:
%s (%d units)

Lowest seller:
%s (%d units)

You MUST write EXACTLY 4 articles:
1) TOP OF THE ROUND - satirical, sharp; explain WHY the winning strategy worked, not the product.
2) FLOP OF THE ROUND - satirical and visibly amused; the failure should feel ironic, avoidable, and obvious in hindsight, funny even to the losing player.
3) INVESTIGATIVE ARTICLE - analyze how marketing engineered demand: psychological levers (fear, belonging, identity, repetition), consumers acting against stated intentions, designed influence versus freedom of choice. Do not moralize.
4) MEDIA CLIMATE / TREND PIECE - zoom out; what this round says about attention, culture, or consumer mood (hype cycles, fatigue, normalization, escalation).

STYLE RULES:
- Opinionated media, not neutral reporting; headlines clickable, dramatic, or ironic.
- Mix SHORT (2-3 sentences) and LONG (6-10 sentences) articles.
- Never insult players personally; products are symbols, never the real story.

Respond ONLY in valid JSON:
[
  {
    "title": "string",
    "text": "string",
    "type": "top | flop | investigation | trend | analyst | hype"
  }
]
`, rc.Round, lines.String(), rc.Top.Name, rc.Top.UnitsSold, rc.Flop.Name, rc.Flop.UnitsSold)
}
