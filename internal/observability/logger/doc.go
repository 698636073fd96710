// Package logger provee un logger zap singleton con propagación por contexto.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "systemrpg"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("auth"), logger.Op("Login"))
//	log.Info("login ok", logger.UserID(id))
//
// Los middlewares HTTP inyectan un logger "scoped" con request_id/method/path
// via ToContext; From(ctx) lo recupera en cualquier capa.
package logger
