package achievements

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

// SeedCatalog upserts the built-in achievement catalog by name. Reruns
// refresh descriptions, points and conditions without touching unlock
// history.
func SeedCatalog(ctx context.Context, repo repositories.AchievementRepository) error {
	for _, def := range seedDefinitions() {
		if err := repo.UpsertDefinition(ctx, def); err != nil {
			return fmt.Errorf("failed to seed achievement %q: %w", def.Name, err)
		}
	}

	slog.Info("Achievement catalog seeded",
		slog.String("type", "engine"),
		slog.Int("achievements", len(seedDefinitions())))
	return nil
}

func seedDefinitions() []*models.Achievement {
	return []*models.Achievement{
		{
			Name:        "Primeira Abertura",
			Description: "Abra seu primeiro pacote",
			Category:    models.CategoryCollector,
			Type:        models.TypeFirstTime,
			Conditions:  MustConditions(Condition{Kind: KindFirstOccurrence, Of: EventPackOpened}),
			Points:      5,
		},
		{
			Name:        "Colecionador Iniciante",
			Description: "Colecione 10 itens",
			Category:    models.CategoryCollector,
			Type:        models.TypeCounter,
			Conditions:  MustConditions(Condition{Kind: KindCount, Counter: CounterItemsCollected, Target: 10}),
			Points:      10,
		},
		{
			Name:        "Colecionador Dedicado",
			Description: "Colecione 100 itens",
			Category:    models.CategoryCollector,
			Type:        models.TypeCounter,
			Conditions:  MustConditions(Condition{Kind: KindCount, Counter: CounterItemsCollected, Target: 100}),
			Points:      50,
		},
		{
			Name:        "Mestre Colecionador",
			Description: "Colecione 500 itens",
			Category:    models.CategoryCollector,
			Type:        models.TypeCounter,
			Conditions:  MustConditions(Condition{Kind: KindCount, Counter: CounterItemsCollected, Target: 500}),
			Points:      150,
		},
		{
			Name:        "Abridor Compulsivo",
			Description: "Abra 50 pacotes",
			Category:    models.CategoryCollector,
			Type:        models.TypeCounter,
			Conditions:  MustConditions(Condition{Kind: KindCount, Counter: CounterPacksOpened, Target: 50}),
			Points:      75,
		},
		{
			Name:        "Caçador de Raridades",
			Description: "Possua 10 itens raros ou melhores",
			Category:    models.CategoryCollector,
			Type:        models.TypeThreshold,
			Conditions:  MustConditions(Condition{Kind: KindRarityThreshold, Rarity: models.RarityRare, Count: 10}),
			Points:      40,
		},
		{
			Name:        "Lenda Viva",
			Description: "Possua 5 itens lendários",
			Category:    models.CategoryCollector,
			Type:        models.TypeThreshold,
			Conditions:  MustConditions(Condition{Kind: KindRarityThreshold, Rarity: models.RarityLegendary, Count: 5}),
			Points:      120,
		},
		{
			Name:        "Explorador de Mundos",
			Description: "Complete sua primeira coleção",
			Category:    models.CategoryExplorer,
			Type:        models.TypeThreshold,
			Conditions:  MustConditions(Condition{Kind: KindCollectionCompletion, Count: 1}),
			Points:      30,
		},
		{
			Name:        "Cartógrafo",
			Description: "Complete 5 coleções",
			Category:    models.CategoryExplorer,
			Type:        models.TypeThreshold,
			Conditions:  MustConditions(Condition{Kind: KindCollectionCompletion, Count: 5}),
			Points:      100,
		},
		{
			Name:        "Sortudo de Primeira",
			Description: "Tire um item lendário no seu primeiro pacote",
			Category:    models.CategorySpecial,
			Type:        models.TypeFirstTime,
			Conditions: MustConditions(
				Condition{Kind: KindFirstOccurrence, Of: EventPackOpened},
				Condition{Kind: KindRarityThreshold, Rarity: models.RarityLegendary, Count: 1},
			),
			Points:   200,
			IsSecret: true,
		},
		{
			Name:        "Coruja da Madrugada",
			Description: "Abra um pacote entre meia-noite e 5h",
			Category:    models.CategorySpecial,
			Type:        models.TypeTimed,
			Conditions: MustConditions(
				Condition{Kind: KindTimeWindow, StartHour: 0, EndHour: 5},
				Condition{Kind: KindCount, Counter: CounterPacksOpened, Target: 1},
			),
			Points:   25,
			IsSecret: true,
		},
		{
			Name:        "Madrugador",
			Description: "Faça login antes das 6h",
			Category:    models.CategoryDaily,
			Type:        models.TypeTimed,
			Conditions:  MustConditions(Condition{Kind: KindEarlyBird, BeforeHour: 6}),
			Points:      25,
		},
		{
			Name:        "Guerreiro de Fim de Semana",
			Description: "Faça login em 8 dias de fim de semana no mesmo mês",
			Category:    models.CategoryDaily,
			Type:        models.TypeTimed,
			Conditions:  MustConditions(Condition{Kind: KindWeekendWarrior, Count: 8}),
			Points:      60,
		},
		{
			Name:        "De Volta ao Jogo",
			Description: "Volte depois de 30 dias ausente",
			Category:    models.CategoryDaily,
			Type:        models.TypeTimed,
			Conditions:  MustConditions(Condition{Kind: KindComeback, GapDays: 30}),
			Points:      20,
		},
		{
			Name:        "Ritual Diário",
			Description: "Faça login em 7 dias diferentes",
			Category:    models.CategoryDaily,
			Type:        models.TypeCounter,
			Conditions:  MustConditions(Condition{Kind: KindDailyLogin, Target: 7}),
			Points:      15,
		},
		{
			Name:        "Semana Perfeita",
			Description: "Mantenha uma sequência de 7 dias",
			Category:    models.CategoryDaily,
			Type:        models.TypeStreak,
			Conditions:  MustConditions(Condition{Kind: KindDailyStreak, Target: 7}),
			Points:      35,
		},
		{
			Name:        "Mês de Ferro",
			Description: "Mantenha uma sequência de 30 dias",
			Category:    models.CategoryDaily,
			Type:        models.TypeStreak,
			Conditions:  MustConditions(Condition{Kind: KindStreak, Target: 30}),
			Points:      150,
		},
		{
			Name:        "Recompensado",
			Description: "Resgate 10 recompensas diárias",
			Category:    models.CategoryDaily,
			Type:        models.TypeCounter,
			Conditions:  MustConditions(Condition{Kind: KindDailyRewardsClaimed, Target: 10}),
			Points:      20,
		},
		{
			Name:        "Primeiro Negócio",
			Description: "Faça sua primeira compra no mercado",
			Category:    models.CategoryTrader,
			Type:        models.TypeFirstTime,
			Conditions:  MustConditions(Condition{Kind: KindFirstPurchase}),
			Points:      10,
		},
		{
			Name:        "Comerciante",
			Description: "Venda 10 itens no mercado",
			Category:    models.CategoryTrader,
			Type:        models.TypeCounter,
			Conditions:  MustConditions(Condition{Kind: KindCount, Counter: CounterMarketplaceSales, Target: 10}),
			Points:      40,
		},
		{
			Name:        "Magnata",
			Description: "Venda 100 itens no mercado",
			Category:    models.CategoryTrader,
			Type:        models.TypeCounter,
			Conditions:  MustConditions(Condition{Kind: KindCount, Counter: CounterMarketplaceSales, Target: 100}),
			Points:      150,
		},
		{
			Name:        "Veterano",
			Description: "Acumule 1000 XP",
			Category:    models.CategoryMilestone,
			Type:        models.TypeThreshold,
			Conditions:  MustConditions(Condition{Kind: KindValue, Counter: ValueTotalXP, Target: 1000}),
			Points:      80,
		},
		{
			Name:        "Nível 10",
			Description: "Alcance o nível 10",
			Category:    models.CategoryMilestone,
			Type:        models.TypeThreshold,
			Conditions:  MustConditions(Condition{Kind: KindValue, Counter: ValueLevel, Target: 10}),
			Points:      100,
		},
	}
}
