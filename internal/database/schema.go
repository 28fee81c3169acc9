package database

// schema is applied in order by Migrate.  Ticket uniqueness within a raffle
// is enforced by uk_ticket_number; payment references by uk_payment_ref.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		slug VARCHAR(120) NOT NULL,
		name VARCHAR(200) NOT NULL,
		whatsapp VARCHAR(40) NOT NULL DEFAULT '',
		email VARCHAR(200) NOT NULL DEFAULT '',
		telegram_chat_id BIGINT NOT NULL DEFAULT 0,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		wompi_public_key VARCHAR(200) NOT NULL DEFAULT '',
		wompi_private_key VARCHAR(200) NOT NULL DEFAULT '',
		wompi_integrity_secret VARCHAR(200) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uk_tenant_slug (slug)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tenant_users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		tenant_id BIGINT UNSIGNED NOT NULL,
		email VARCHAR(200) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'ADMIN',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uk_user_email (email),
		CONSTRAINT fk_user_tenant FOREIGN KEY (tenant_id) REFERENCES tenants(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uk_token_hash (token_hash),
		CONSTRAINT fk_token_user FOREIGN KEY (user_id) REFERENCES tenant_users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS raffles (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		tenant_id BIGINT UNSIGNED NOT NULL,
		slug VARCHAR(160) NOT NULL,
		name VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		prize_value DECIMAL(14,2) NOT NULL DEFAULT 0,
		digit_width TINYINT UNSIGNED NOT NULL,
		ticket_count INT UNSIGNED NOT NULL,
		unit_price DECIMAL(14,2) NOT NULL,
		status ENUM('ACTIVE','ARCHIVED') NOT NULL DEFAULT 'ACTIVE',
		closes_at DATETIME NULL,
		winning_number VARCHAR(6) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uk_raffle_slug (slug),
		KEY idx_raffle_tenant (tenant_id, status),
		CONSTRAINT fk_raffle_tenant FOREIGN KEY (tenant_id) REFERENCES tenants(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS buyers (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		national_id VARCHAR(40) NOT NULL,
		name VARCHAR(200) NOT NULL,
		email VARCHAR(200) NOT NULL,
		phone VARCHAR(40) NOT NULL,
		UNIQUE KEY uk_buyer_national_id (national_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS purchases (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		tenant_id BIGINT UNSIGNED NOT NULL,
		raffle_id BIGINT UNSIGNED NOT NULL,
		buyer_id BIGINT UNSIGNED NOT NULL,
		total DECIMAL(14,2) NOT NULL,
		status ENUM('PENDING','PAID') NOT NULL DEFAULT 'PENDING',
		payment_ref VARCHAR(64) NULL,
		paid_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uk_payment_ref (payment_ref),
		KEY idx_purchase_raffle (raffle_id),
		CONSTRAINT fk_purchase_raffle FOREIGN KEY (raffle_id) REFERENCES raffles(id),
		CONSTRAINT fk_purchase_buyer FOREIGN KEY (buyer_id) REFERENCES buyers(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS purchase_tickets (
		purchase_id BIGINT UNSIGNED NOT NULL,
		number VARCHAR(6) NOT NULL,
		PRIMARY KEY (purchase_id, number),
		CONSTRAINT fk_pt_purchase FOREIGN KEY (purchase_id) REFERENCES purchases(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tickets (
		raffle_id BIGINT UNSIGNED NOT NULL,
		number VARCHAR(6) NOT NULL,
		status ENUM('AVAILABLE','HELD','SOLD') NOT NULL DEFAULT 'AVAILABLE',
		buyer_id BIGINT UNSIGNED NULL,
		purchase_id BIGINT UNSIGNED NULL,
		hold_expires_at DATETIME NULL,
		UNIQUE KEY uk_ticket_number (raffle_id, number),
		KEY idx_ticket_hold (raffle_id, status, hold_expires_at),
		KEY idx_ticket_purchase (purchase_id),
		CONSTRAINT fk_ticket_raffle FOREIGN KEY (raffle_id) REFERENCES raffles(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
