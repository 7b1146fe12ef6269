package main

import (
	"context"
	"errors"
	"log"

	"parkservices/internal/config"
	"parkservices/internal/database"
	"parkservices/internal/domain"
	"parkservices/internal/modules/auth"
	"parkservices/internal/modules/orders"
	"parkservices/internal/modules/persistence"
	jwtsvc "parkservices/internal/pkg/jwt"
	"parkservices/internal/repository"
)

type demoAccount struct {
	name, phone, role, department string
}

var demoAccounts = []demoAccount{
	{"赵研究", "13900000001", "researcher", "实验组团II"},
	{"钱主管", "13900000002", "admin", ""},
	{"孙服务", "13900000003", "service", ""},
}

const demoPassword = "park123456"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM kv_entries")
	db.Exec("DELETE FROM accounts")

	ctx := context.Background()
	accountRepo := repository.NewAccountRepository(db)
	store := persistence.NewManager(repository.NewKVRepository(db, cfg.StorageQuotaBytes), cfg.PersistBudgetBytes, nil)
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	log.Println("Creating accounts...")
	sessions := auth.NewService(ctx, auth.NewAccountVerifier(accountRepo), accountRepo, store, j)
	for _, a := range demoAccounts {
		_, err := sessions.Register(ctx, auth.RegisterRequest{
			Name:            a.name,
			Phone:           a.phone,
			Password:        demoPassword,
			ConfirmPassword: demoPassword,
			Role:            a.role,
			Department:      a.department,
		})
		if err != nil && !errors.Is(err, auth.ErrPhoneAlreadyExists) {
			log.Fatalf("register %s: %v", a.phone, err)
		}
	}
	if _, err := sessions.Logout(ctx); err != nil {
		log.Fatal(err)
	}

	log.Println("Creating orders...")
	svc := orders.NewService(ctx, store, nil, nil, orders.Options{})
	researcher := demoAccounts[0].name
	handler := demoAccounts[2].name

	rated := svc.SubmitRepair(ctx, orders.RepairInput{
		Type: "空调", Location: "501", Description: "制冷效果差，噪音大", Photo: demoPhoto, Submitter: researcher,
	})
	mustOK(svc.Approve(ctx, rated.RepairOrder.ID))
	mustOK(svc.Start(ctx, rated.RepairOrder.ID, handler))
	mustOK(svc.Complete(ctx, rated.RepairOrder.ID, []string{demoPhoto}))
	mustOK(svc.Rate(ctx, rated.RepairOrder.ID, 5, "维修及时"))

	inProgress := svc.SubmitRepair(ctx, orders.RepairInput{
		Type: "照明", Location: "302", Description: "灯管闪烁", Photo: demoPhoto, Submitter: researcher,
		Engineer: handler, ETA: "30分钟",
	})
	mustOK(svc.Approve(ctx, inProgress.RepairOrder.ID))
	mustOK(svc.Start(ctx, inProgress.RepairOrder.ID, handler))

	rejected := svc.SubmitRepair(ctx, orders.RepairInput{
		Type: "门禁", Location: "1F大厅", Description: "刷卡无反应", Photo: demoPhoto, Submitter: researcher,
	})
	mustOK(svc.Reject(ctx, rejected.RepairOrder.ID))

	forms := []orders.ServiceForm{
		orders.MeetingRoomForm{Room: "A101会议室", Date: "2025-06-02", StartTime: "09:00", EndTime: "10:30", PeopleCount: "8", Purpose: "项目评审"},
		orders.DiningForm{MealType: "午餐", Date: "2025-06-02", Time: "12:00", PeopleCount: "3"},
		orders.VisitorForm{VisitorName: "刘明", VisitorPhone: "13700000000", VisitorCount: "2", VisitDate: "2025-06-03",
			VisitTime: "14:00", VisitLocation: "研发楼", VisitPurpose: "技术交流"},
	}
	for i, f := range forms {
		wo, err := svc.SubmitForm(ctx, f, researcher)
		if err != nil {
			log.Fatal(err)
		}
		if i == 0 {
			mustOK(svc.Approve(ctx, wo.ID))
		}
	}

	stats := svc.Stats()
	log.Printf("seed_done accounts=%d work_orders=%d repair_orders=%d pending=%d",
		len(demoAccounts), stats["all"], len(svc.RepairOrders("")), stats[string(domain.OrderPending)])
}

func mustOK(_ orders.MirroredOrder, err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// 1x1 transparent PNG
const demoPhoto = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="
