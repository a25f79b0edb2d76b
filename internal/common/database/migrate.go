// internal/common/database/migrate.go
// Schema migrations executed at startup

package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// RunMigrations creates all tables and indexes if they don't exist
func RunMigrations(db *sqlx.DB) error {
	migrations := []string{
		// Users table
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(100),
			last_name VARCHAR(100),
			is_verified BOOLEAN DEFAULT FALSE,
			verification_token VARCHAR(255),
			reset_token VARCHAR(255),
			reset_token_expires_at TIMESTAMP WITH TIME ZONE,
			last_seen TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,

		// Profiles table, 1:1 with users
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			biography TEXT DEFAULT '',
			age INTEGER,
			gender VARCHAR(10),
			sexual_orientation VARCHAR(10) DEFAULT 'bi',
			interests TEXT[] DEFAULT '{}',
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			city VARCHAR(255),
			fame_rating INTEGER DEFAULT 0 CHECK (fame_rating >= 0),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,

		// Photos stored as base64 blobs in the database
		`CREATE TABLE IF NOT EXISTS photos (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			data TEXT NOT NULL,
			mime_type VARCHAR(50) NOT NULL,
			is_profile_picture BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,

		// Likes: directed edge, upsert per ordered pair
		`CREATE TABLE IF NOT EXISTS likes (
			liker_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			liked_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			is_like BOOLEAN NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (liker_id, liked_id)
		)`,

		// Matches: undirected, canonical user1_id < user2_id
		`CREATE TABLE IF NOT EXISTS matches (
			user1_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			user2_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user1_id, user2_id),
			CHECK (user1_id < user2_id)
		)`,

		// Blocks: directed edge
		`CREATE TABLE IF NOT EXISTS blocks (
			blocker_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			blocked_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (blocker_id, blocked_id)
		)`,

		// Reports
		`CREATE TABLE IF NOT EXISTS reports (
			id SERIAL PRIMARY KEY,
			reporter_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reported_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reason TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,

		// Profile visits: one row per (visitor, visited, calendar day)
		`CREATE TABLE IF NOT EXISTS profile_visits (
			visitor_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			visited_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			visited_on DATE NOT NULL DEFAULT CURRENT_DATE,
			visited_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (visitor_id, visited_id, visited_on)
		)`,

		// Conversations: one per matched pair, canonical ordering
		`CREATE TABLE IF NOT EXISTS conversations (
			id SERIAL PRIMARY KEY,
			user1_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			user2_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			is_active BOOLEAN DEFAULT TRUE,
			last_message_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT unique_conversation_pair UNIQUE (user1_id, user2_id),
			CHECK (user1_id < user2_id)
		)`,

		// Messages
		`CREATE TABLE IF NOT EXISTS messages (
			id SERIAL PRIMARY KEY,
			conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sender_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			is_read BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,

		// Notifications
		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type VARCHAR(20) NOT NULL,
			data JSONB DEFAULT '{}',
			is_read BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_verification_token ON users(verification_token)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_user_id ON photos(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_likes_liked_id ON likes(liked_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches(user2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_blocked_id ON blocks(blocked_id)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_visited_id ON profile_visits(visited_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_users ON conversations(user1_id, user2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("migration %d failed: %w", i+1, err)
			}
		}
	}

	return nil
}
